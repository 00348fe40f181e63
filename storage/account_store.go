package storage

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/codec"
	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/types"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var accountPrefix = []byte("acct/")

// kvStore is the subset shared by *leveldb.DB and *leveldb.Transaction.
type kvStore interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// AccountStore reads and writes account records keyed by address.
type AccountStore struct {
	kv kvStore
}

func accountKey(addr common.Address) []byte {
	return append(append([]byte{}, accountPrefix...), addr.Bytes()...)
}

// Get returns the account at addr. found is false if no record exists.
func (s *AccountStore) Get(addr common.Address) (acct *types.Account, found bool, err error) {
	raw, found, err := get(s.kv, accountKey(addr))
	if err != nil || !found {
		return nil, found, err
	}
	acct, err = codec.DecodeAccount(raw)
	if err != nil {
		return nil, false, fmt.Errorf("account %s: %w", addr, err)
	}
	return acct, true, nil
}

func (s *AccountStore) Put(addr common.Address, acct *types.Account) error {
	log.Trace(log.StorageMonitoring, "PutAccount", "addr", addr.String_short(), "funding", acct.Funding, "len", acct.Length())
	return s.kv.Put(accountKey(addr), codec.EncodeAccount(acct), nil)
}

func (s *AccountStore) Delete(addr common.Address) error {
	log.Trace(log.StorageMonitoring, "DeleteAccount", "addr", addr.String_short())
	return s.kv.Delete(accountKey(addr), nil)
}

// AddressedAccount pairs an account with its key.
type AddressedAccount struct {
	Address common.Address `json:"address"`
	Account *types.Account `json:"account"`
}

// List returns every account in address order.
func (s *AccountStore) List() ([]AddressedAccount, error) {
	kvs, err := scan(s.kv, accountPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]AddressedAccount, 0, len(kvs))
	for _, kv := range kvs {
		addr := common.BytesToAddress(kv[0][len(accountPrefix):])
		acct, err := codec.DecodeAccount(kv[1])
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", addr, err)
		}
		out = append(out, AddressedAccount{Address: addr, Account: acct})
	}
	return out, nil
}
