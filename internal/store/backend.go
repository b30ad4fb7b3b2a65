package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rafabd1/vipmanager/internal/member"
)

// Backend is the durable side of the store. Read returns an error satisfying
// errors.Is(err, fs.ErrNotExist) when nothing has been saved yet.
type Backend interface {
	Read(ctx context.Context) ([]member.Member, error)
	Write(ctx context.Context, members []member.Member) error
}

// FileBackend keeps the whole member list as one JSON array in a single file.
type FileBackend struct {
	path string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend returns a backend for path. The parent directory is created on
// the first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path is the location of the data file.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Read(ctx context.Context) ([]member.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", b.path)
	}
	var members []member.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, errors.Wrapf(err, "decode %s", b.path)
	}
	return members, nil
}

// Write replaces the file contents. The data goes to a temp file in the same
// directory first and is renamed over the target, so readers never see a partial list.
func (b *FileBackend) Write(ctx context.Context, members []member.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if members == nil {
		members = []member.Member{}
	}
	data, err := json.Marshal(members)
	if err != nil {
		return errors.Wrap(err, "encode members")
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create data dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return errors.Wrapf(err, "replace %s", b.path)
	}
	return nil
}
