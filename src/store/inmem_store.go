package store

import (
	"fmt"
	"sort"
	"sync"

	cm "github.com/dnaclient/dnaclient/src/common"
)

// InmemStore is a Store that keeps its rows in memory. It has the same
// semantics as BadgerStore and is used when no database is configured.
type InmemStore struct {
	sync.RWMutex
	tables map[string]map[string][]byte
	closed bool
}

// NewInmemStore returns an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		tables: make(map[string]map[string][]byte),
	}
}

// Table implements the Store interface.
func (s *InmemStore) Table(name string, epoch int) Table {
	return &inmemTable{
		store: s,
		name:  name,
		key:   fmt.Sprintf("%s_%09d", name, epoch),
	}
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	s.Lock()
	defer s.Unlock()
	s.closed = true
	return nil
}

type inmemTable struct {
	store *InmemStore
	name  string
	key   string
}

func (t *inmemTable) Get(id string, v interface{}) error {
	t.store.RLock()
	defer t.store.RUnlock()

	if t.store.closed {
		return cm.NewStoreErr(t.name, cm.Closed, id)
	}

	data, ok := t.store.tables[t.key][id]
	if !ok {
		return cm.NewStoreErr(t.name, cm.KeyNotFound, id)
	}

	if err := Decode(data, v); err != nil {
		return cm.NewStoreErr(t.name, cm.Encoding, id)
	}

	return nil
}

func (t *inmemTable) All() ([][]byte, error) {
	t.store.RLock()
	defer t.store.RUnlock()

	if t.store.closed {
		return nil, cm.NewStoreErr(t.name, cm.Closed, "")
	}

	rows := t.store.tables[t.key]
	if len(rows) == 0 {
		return nil, cm.NewStoreErr(t.name, cm.KeyNotFound, "")
	}

	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := make([][]byte, 0, len(ids))
	for _, id := range ids {
		res = append(res, rows[id])
	}

	return res, nil
}

func (t *inmemTable) Put(id string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return cm.NewStoreErr(t.name, cm.Encoding, id)
	}

	t.store.Lock()
	defer t.store.Unlock()

	if t.store.closed {
		return cm.NewStoreErr(t.name, cm.Closed, id)
	}

	rows, ok := t.store.tables[t.key]
	if !ok {
		rows = make(map[string][]byte)
		t.store.tables[t.key] = rows
	}
	rows[id] = data

	return nil
}
