package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/rent"
	"github.com/colorfulnotion/treeprogram/runtime"
)

// DefaultProgramID is the program all regions are derived from unless
// configured otherwise.
var DefaultProgramID = common.Address(common.Blake2Hash([]byte("merkle-tree-program")))

// Config is the treectl configuration file. Fields absent from the file
// keep their defaults.
type Config struct {
	DataDir      string         `json:"datadir"`
	KeyFile      string         `json:"keyfile"`
	ProgramID    common.Address `json:"program_id"`
	HashType     string         `json:"hash_type"`
	Rent         rent.Rent      `json:"rent"`
	Limits       runtime.Limits `json:"limits"`
	MaxLeafSize  int            `json:"max_leaf_size"`
	RPCAddr      string         `json:"rpc_addr"`
	LogLevel     string         `json:"log_level"`
	LogJSON      bool           `json:"log_json"`
	DebugModules string         `json:"debug_modules"`
	OTLPEndpoint string         `json:"otlp_endpoint"`
}

func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := filepath.Join(home, ".treeprogram")
	return &Config{
		DataDir:     filepath.Join(dir, "db"),
		KeyFile:     filepath.Join(dir, "payer.json"),
		ProgramID:   DefaultProgramID,
		HashType:    merkle.Blake2b,
		Rent:        rent.Default(),
		Limits:      runtime.DefaultLimits(),
		MaxLeafSize: codec.DefaultMaxLeafSize,
		RPCAddr:     "127.0.0.1:8899",
		LogLevel:    "info",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := merkle.NewHasher(c.HashType); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Rent.PerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		errs = append(errs, errors.New("rent must charge for storage"))
	}
	if c.Limits.MaxRegionLength <= 0 || c.Limits.MaxGrowthPerInvocation <= 0 {
		errs = append(errs, fmt.Errorf("limits must be positive: %+v", c.Limits))
	}
	if c.MaxLeafSize <= 0 || c.MaxLeafSize > c.Limits.MaxRegionLength {
		errs = append(errs, fmt.Errorf("max_leaf_size %d out of range", c.MaxLeafSize))
	}
	if c.ProgramID == (common.Address{}) {
		errs = append(errs, errors.New("program_id is required"))
	}
	return errors.Join(errs...)
}

// Hasher returns the configured tree hash function.
func (c *Config) Hasher() merkle.Hasher {
	h, err := merkle.NewHasher(c.HashType)
	if err != nil {
		return merkle.NewBlake2bHasher()
	}
	return h
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
