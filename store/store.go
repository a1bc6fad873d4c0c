// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The store package provides the scoped transactions every state mutation runs in.

A Store hands out a Txn to a callback. Writes made through the Txn are buffered and only become
visible to other readers when the callback returns nil; any error discards the whole scope.

Two implementations exist: an in-memory store used by tests and ephemeral chains, and a badger
backed store for chains configured with a data directory.
*/
package store

import (
	"errors"
)

var ErrNotFound = errors.New("key not found")
var ErrClosed = errors.New("store closed")

// Txn is a mutation scope. It is only valid inside the callback that received it.
type Txn interface {
	// Get returns ErrNotFound when the key is absent.
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Iterate walks keys with the given prefix in ascending byte order.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}

type Store interface {
	// View runs fn in a read-only scope. Writes inside fn fail.
	View(fn func(txn Txn) error) error
	// Update runs fn in a read-write scope committed only if fn returns nil.
	Update(fn func(txn Txn) error) error
	Close() error
}

var ErrReadOnly = errors.New("write in read-only transaction")

// Has reports whether key is present in the scope.
func Has(txn Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Key joins a storage prefix, an item name and any number of encoded parts.
func Key(prefix, item string, parts ...[]byte) []byte {
	n := len(prefix) + 1 + len(item) + 1
	for _, p := range parts {
		n += len(p)
	}
	k := make([]byte, 0, n)
	k = append(k, prefix...)
	k = append(k, ':')
	k = append(k, item...)
	k = append(k, ':')
	for _, p := range parts {
		k = append(k, p...)
	}
	return k
}
