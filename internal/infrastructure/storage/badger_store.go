// Package storage guarda los archivos de documentos en BadgerDB y firma URLs de descarga.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// ErrObjectNotFound la llave no existe.
var ErrObjectNotFound = errors.New("storage: objeto no encontrado")

const (
	dataPrefix = "obj:"
	typePrefix = "ct:"
)

// Object archivo leído del store.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// BadgerStore object store llave-valor sobre BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// Options apertura del store. InMemory ignora Path (tests).
type Options struct {
	Path     string
	InMemory bool
}

// Open abre (o crea) el store.
func Open(opts Options) (*BadgerStore, error) {
	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, fmt.Errorf("storage: crear directorio %s: %w", opts.Path, err)
		}
		bo = badger.DefaultOptions(opts.Path)
	}
	db, err := badger.Open(bo.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("storage: abrir badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close cierra la base.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Put escribe (o sobrescribe) el objeto.
func (s *BadgerStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataPrefix+key), data); err != nil {
			return err
		}
		return txn.Set([]byte(typePrefix+key), []byte(contentType))
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Get lee el objeto; ErrObjectNotFound si no existe.
func (s *BadgerStore) Get(_ context.Context, key string) (*Object, error) {
	obj := &Object{Key: key}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + key))
		if err != nil {
			return err
		}
		if obj.Data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		ct, err := txn.Get([]byte(typePrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := ct.ValueCopy(nil)
		obj.ContentType = string(v)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return obj, nil
}

// Exists informa si la llave existe.
func (s *BadgerStore) Exists(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(dataPrefix + key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: exists %s: %w", key, err)
	}
	return true, nil
}

// Delete borra el objeto; borrar una llave inexistente no es error.
func (s *BadgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(dataPrefix + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(typePrefix + key))
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Keys llaves con el prefijo dado (diagnóstico y tests).
func (s *BadgerStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(dataPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(dataPrefix):]))
		}
		return nil
	})
	return keys, err
}
