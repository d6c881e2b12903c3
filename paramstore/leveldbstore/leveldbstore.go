// Copyright 2024 The gcode-canon Authors
// This file is part of gcode-canon.
//
// gcode-canon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gcode-canon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gcode-canon. If not, see <http://www.gnu.org/licenses/>.

// Package leveldbstore is the persisted parameter file (component C11): a
// gcodeparam.Persistor backed by goleveldb, so well-known parameters
// (WCS origins, tool table, offsets) survive across runs the way a real
// control's battery-backed parameter memory does.
//
// Grounded on the Database wrapper exercised by
// _examples/ProbeChain-go-probe/go-probe-master/probedb/leveldb/leveldb_test.go.
package leveldbstore

import (
	"encoding/binary"
	"math"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/canonical-gcode/gcode-canon/gcodeparam"
)

// Store persists parameters as 8-byte big-endian keys mapping to 8-byte
// IEEE-754 values, one leveldb entry per parameter number.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the parameter file at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory parameter file, used by tests that want
// Store's on-disk key encoding without touching the filesystem.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying leveldb handle.
func (s *Store) Close() error { return s.db.Close() }

// Sync implements gcodeparam.Persistor.
func (s *Store) Sync(n uint16, v float64) error {
	return s.db.Put(encodeKey(n), encodeValue(v), nil)
}

// Load populates store with every persisted parameter found in the file,
// meant to run once at boot before the interpreter starts consuming
// blocks.
func (s *Store) Load(store *gcodeparam.Store) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		n := decodeKey(iter.Key())
		v := decodeValue(iter.Value())
		if err := store.Set(n, v); err != nil {
			return err
		}
	}
	return iter.Error()
}

func encodeKey(n uint16) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func decodeKey(b []byte) uint16 {
	return uint16(binary.BigEndian.Uint64(b))
}

func encodeValue(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func decodeValue(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
