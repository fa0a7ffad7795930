package store

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger"
	cm "github.com/dnaclient/dnaclient/src/common"
	"github.com/sirupsen/logrus"
)

// BadgerStore is a Store backed by a Badger database. Rows are stored under
// the key [table]_[epoch]_[id], so a table is a key prefix and All is a prefix
// scan.
type BadgerStore struct {
	db     *badger.DB
	path   string
	closed int32
	logger *logrus.Entry
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true).
		WithLogger(logger.WithFields(logrus.Fields{"ns": "badger"}))

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:     handle,
		path:   path,
		logger: logger,
	}, nil
}

// Table implements the Store interface.
func (s *BadgerStore) Table(name string, epoch int) Table {
	return &badgerTable{
		store:  s,
		name:   name,
		prefix: tablePrefix(name, epoch),
	}
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	return s.db.Close()
}

// StorePath returns the full path of the underlying Badger database directory.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func (s *BadgerStore) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

/*******************************************************************************
Keys
*******************************************************************************/

func tablePrefix(name string, epoch int) []byte {
	return []byte(fmt.Sprintf("%s_%09d_", name, epoch))
}

func rowKey(prefix []byte, id string) []byte {
	key := make([]byte, 0, len(prefix)+len(id))
	key = append(key, prefix...)
	return append(key, id...)
}

/*******************************************************************************
Tables
*******************************************************************************/

type badgerTable struct {
	store  *BadgerStore
	name   string
	prefix []byte
}

func (t *badgerTable) Get(id string, v interface{}) error {
	if t.store.isClosed() {
		return cm.NewStoreErr(t.name, cm.Closed, id)
	}

	var data []byte
	err := t.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey(t.prefix, id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return mapError(err, t.name, id)
	}

	if err := Decode(data, v); err != nil {
		t.store.logger.WithError(err).WithField("id", id).Error("Decoding row")
		return cm.NewStoreErr(t.name, cm.Encoding, id)
	}

	return nil
}

func (t *badgerTable) All() ([][]byte, error) {
	if t.store.isClosed() {
		return nil, cm.NewStoreErr(t.name, cm.Closed, "")
	}

	var rows [][]byte
	err := t.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(t.prefix); it.ValidForPrefix(t.prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rows = append(rows, data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, cm.NewStoreErr(t.name, cm.KeyNotFound, "")
	}

	return rows, nil
}

func (t *badgerTable) Put(id string, v interface{}) error {
	if t.store.isClosed() {
		return cm.NewStoreErr(t.name, cm.Closed, id)
	}

	data, err := Encode(v)
	if err != nil {
		return cm.NewStoreErr(t.name, cm.Encoding, id)
	}

	tx := t.store.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Set(rowKey(t.prefix, id), data); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	t.store.logger.WithFields(logrus.Fields{
		"table": t.name,
		"id":    id,
	}).Debug("BadgerStore.Put")

	return nil
}

func isDBKeyNotFound(err error) bool {
	return err != nil && err.Error() == badger.ErrKeyNotFound.Error()
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
