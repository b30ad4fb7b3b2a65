package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafabd1/vipmanager/internal/member"
)

func TestFileBackendMissingFile(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "nope", "members.json"))
	_, err := b.Read(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFileBackendWritesArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "members.json")
	b := NewFileBackend(path)

	require.NoError(t, b.Write(context.Background(), nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))

	m := member.New("Shop A", "Main St", "13800000000", decimal.RequireFromString("5.25"))
	require.NoError(t, b.Write(context.Background(), []member.Member{m}))

	got, err := b.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, m.Equal(got[0]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestFileBackendDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":1}`), 0o644))

	_, err := NewFileBackend(path).Read(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "decode")
}

func TestFileBackendHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFileBackend(filepath.Join(t.TempDir(), "m.json")).Write(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
