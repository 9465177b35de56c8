package storage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gestion-api/internal/infrastructure/storage"
	pkgjwt "github.com/jhoicas/Gestion-api/pkg/jwt"
)

func openStore(t *testing.T) *storage.BadgerStore {
	t.Helper()
	s, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.Put(ctx, "companies/c1/a.pdf", []byte("%PDF-1.4"), "application/pdf"))

	ok, err := s.Exists(ctx, "companies/c1/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := s.Get(ctx, "companies/c1/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), obj.Data)

	require.NoError(t, s.Delete(ctx, "companies/c1/a.pdf"))
	_, err = s.Get(ctx, "companies/c1/a.pdf")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	// Idempotente.
	assert.NoError(t, s.Delete(ctx, "companies/c1/a.pdf"))
}

func TestBadgerStore_KeysPorPrefijo(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Put(ctx, "companies/c1/x", []byte("1"), "text/plain"))
	require.NoError(t, s.Put(ctx, "companies/c2/y", []byte("2"), "text/plain"))

	keys, err := s.Keys("companies/c1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"companies/c1/x"}, keys)
}

func TestPresigner_RoundTrip(t *testing.T) {
	p := storage.NewPresigner("secret", time.Minute, "/api/files/")

	url, exp, err := p.URL("companies/c1/a.pdf", "a.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/files/"))
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	key, name, err := p.Resolve(strings.TrimPrefix(url, "/api/files/"))
	require.NoError(t, err)
	assert.Equal(t, "companies/c1/a.pdf", key)
	assert.Equal(t, "a.pdf", name)
}

func TestPresigner_Vencido(t *testing.T) {
	tok, err := pkgjwt.SignObject("secret", "k", "", -time.Minute)
	require.NoError(t, err)

	p := storage.NewPresigner("secret", time.Minute, "/api/files")
	_, _, err = p.Resolve(tok)
	assert.ErrorIs(t, err, pkgjwt.ErrExpired)
}
