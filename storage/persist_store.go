package storage

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/treeprogram/log"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// PersistenceStore wraps LevelDB for raw key-value persistence and hands out
// account views over either committed state or an open transaction.
type PersistenceStore struct {
	db   *leveldb.DB
	path string
}

// NewPersistenceStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewPersistenceStore(path string) (*PersistenceStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	log.Debug(log.StorageMonitoring, "NewPersistenceStore", "path", path)
	return &PersistenceStore{db: db, path: path}, nil
}

// NewMemoryPersistenceStore creates an in-memory PersistenceStore for testing.
func NewMemoryPersistenceStore() (*PersistenceStore, error) {
	return NewPersistenceStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (ps *PersistenceStore) Get(key []byte) ([]byte, bool, error) {
	return get(ps.db, key)
}

func (ps *PersistenceStore) Put(key []byte, value []byte) error {
	return ps.db.Put(key, value, nil)
}

func (ps *PersistenceStore) Delete(key []byte) error {
	return ps.db.Delete(key, nil)
}

// GetWithPrefix returns all key-value pairs with the given prefix in key order.
func (ps *PersistenceStore) GetWithPrefix(prefix []byte) ([][2][]byte, error) {
	return scan(ps.db, prefix)
}

// Accounts returns a view over committed accounts.
func (ps *PersistenceStore) Accounts() *AccountStore {
	return &AccountStore{kv: ps.db}
}

// Begin opens a write transaction. LevelDB allows one open transaction at a
// time; writes to the database block until it is committed or discarded.
func (ps *PersistenceStore) Begin() (*Txn, error) {
	tx, err := ps.db.OpenTransaction()
	if err != nil {
		return nil, fmt.Errorf("open transaction: %w", err)
	}
	return &Txn{AccountStore: &AccountStore{kv: tx}, tx: tx}, nil
}

func (ps *PersistenceStore) Close() error {
	return ps.db.Close()
}

// DB returns the underlying LevelDB instance for advanced operations.
func (ps *PersistenceStore) DB() *leveldb.DB {
	return ps.db
}

// Txn is an account view whose writes become visible only on Commit.
type Txn struct {
	*AccountStore
	tx   *leveldb.Transaction
	done bool
}

func (t *Txn) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Discard drops every write made through t. Calling it after Commit is a no-op.
func (t *Txn) Discard() {
	if t.done {
		return
	}
	t.done = true
	t.tx.Discard()
}

func get(kv kvStore, key []byte) ([]byte, bool, error) {
	data, err := kv.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func scan(kv kvStore, prefix []byte) ([][2][]byte, error) {
	iter := kv.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var results [][2][]byte
	for iter.Next() {
		// iterator buffers are reused between steps
		key := append([]byte{}, iter.Key()...)
		value := append([]byte{}, iter.Value()...)
		results = append(results, [2][]byte{key, value})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("GetWithPrefix %x: %w", prefix, err)
	}
	return results, nil
}
