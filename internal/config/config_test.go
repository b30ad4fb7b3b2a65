package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafabd1/vipmanager/internal/member"
	"github.com/rafabd1/vipmanager/internal/store"
)

func fakeHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return home, nil }
	t.Cleanup(func() { userHomeDir = orig })
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDefaultsWhenNoFile(t *testing.T) {
	home := fakeHome(t)

	cfg, err := LoadFrom(filepath.Join(home, "missing.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Equal(t, filepath.Join(home, ".vipmanager", "members.json"), cfg.DataFile())
	assert.Equal(t, filepath.Join(home, ".vipmanager", "vipmanager.log"), cfg.Log.File)
	assert.Equal(t, store.RollbackCreate, cfg.RollbackPolicy())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel())
	_, ok := cfg.SortKey()
	assert.False(t, ok)
}

func TestFirstExistingFileWins(t *testing.T) {
	home := fakeHome(t)
	first := filepath.Join(home, "a.yaml")
	second := filepath.Join(home, "b.yaml")
	writeFile(t, second, `
storage:
  data_dir: ~/shops
  file_name: vip.json
  rollback: all
log:
  level: debug
display:
  locale: zh-Hans
  default_sort: balance
`)

	cfg, err := LoadFrom(first, second)
	require.NoError(t, err)

	assert.Equal(t, second, cfg.Source)
	assert.Equal(t, filepath.Join(home, "shops", "vip.json"), cfg.DataFile())
	assert.Equal(t, store.RollbackAll, cfg.RollbackPolicy())
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
	assert.Equal(t, "zh-Hans", cfg.LocaleTag().String())
	key, ok := cfg.SortKey()
	assert.True(t, ok)
	assert.Equal(t, member.SortByBalance, key)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	home := fakeHome(t)
	path := filepath.Join(home, "config.yaml")
	writeFile(t, path, "storage:\n  file_name: from-file.json\n")

	t.Setenv("VIPMANAGER_FILE_NAME", "from-env.json")
	t.Setenv("VIPMANAGER_DATA_DIR", filepath.Join(home, "env"))
	t.Setenv("VIPMANAGER_DEFAULT_SORT", "name")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "env", "from-env.json"), cfg.DataFile())
	assert.Equal(t, "name", cfg.Display.DefaultSort)
}

func TestInvalidValuesAreRejected(t *testing.T) {
	home := fakeHome(t)
	cases := map[string]string{
		"rollback":  "storage:\n  rollback: sometimes\n",
		"level":     "log:\n  level: loud\n",
		"sort":      "display:\n  default_sort: phone\n",
		"file name": "storage:\n  file_name: a/b.json\n",
		"yaml":      "storage: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(home, name+".yaml")
			writeFile(t, path, body)
			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}
