package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/treeprogram/common"
)

// Account is one entry of the environment's account store. A funding
// account has no data; a storage region is an account owned by a program
// whose Data holds exactly one encoded tree.
type Account struct {
	Owner   common.Address `json:"owner"`
	Funding uint64         `json:"funding"` // balance backing the account, the rent deposit for regions
	Data    []byte         `json:"-"`
}

// Length returns the region length in bytes.
func (a *Account) Length() int {
	return len(a.Data)
}

// IsEmpty mirrors the "data empty or unfunded" test used to decide between
// provisioning and growing a region.
func (a *Account) IsEmpty() bool {
	return a == nil || len(a.Data) == 0 || a.Funding == 0
}

func (a *Account) Clone() *Account {
	return &Account{
		Owner:   a.Owner,
		Funding: a.Funding,
		Data:    bytes.Clone(a.Data),
	}
}

func (a *Account) String() string {
	return fmt.Sprintf("Account{owner: %s, funding: %d, length: %d}", a.Owner.String_short(), a.Funding, len(a.Data))
}

func (a *Account) MarshalJSON() ([]byte, error) {
	type Alias Account
	return json.Marshal(&struct {
		*Alias
		Length int    `json:"length"`
		Data   string `json:"data"`
	}{
		Alias:  (*Alias)(a),
		Length: len(a.Data),
		Data:   common.Bytes2Hex(a.Data),
	})
}

func (a *Account) UnmarshalJSON(data []byte) error {
	type Alias Account
	aux := &struct {
		*Alias
		Data string `json:"data"`
	}{
		Alias: (*Alias)(a),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	a.Data = common.FromHex(aux.Data)
	return nil
}
