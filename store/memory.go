// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package store

import (
	"bytes"
	"sort"
	"sync"
)

var _ Store = &MemoryStore{}

type MemoryStore struct {
	lock   sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) View(fn func(txn Txn) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memoryTxn{store: s, readOnly: true})
}

func (s *MemoryStore) Update(fn func(txn Txn) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ErrClosed
	}

	txn := &memoryTxn{store: s, pending: make(map[string]*[]byte)}
	if err := fn(txn); err != nil {
		return err
	}

	for k, v := range txn.pending {
		if v == nil {
			delete(s.data, k)
		} else {
			s.data[k] = *v
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	return nil
}

// memoryTxn overlays pending writes on the committed map. A nil entry marks a delete.
type memoryTxn struct {
	store    *MemoryStore
	pending  map[string]*[]byte
	readOnly bool
}

func (t *memoryTxn) Get(key []byte) ([]byte, error) {
	if v, ok := t.pending[string(key)]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return copyBytes(*v), nil
	}
	v, ok := t.store.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBytes(v), nil
}

func (t *memoryTxn) Set(key, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	v := copyBytes(value)
	t.pending[string(key)] = &v
	return nil
}

func (t *memoryTxn) Delete(key []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.pending[string(key)] = nil
	return nil
}

func (t *memoryTxn) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	for k, v := range t.store.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			merged[k] = v
		}
	}
	for k, v := range t.pending {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = *v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn([]byte(k), copyBytes(merged[k])); err != nil {
			return err
		}
	}
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
