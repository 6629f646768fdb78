package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	const dir = "vstore"

	var absdir string
	if runtime.GOOS == "windows" {
		absdir = "c:\\tmp\\vstore"
	} else {
		absdir = "/tmp/vstore"
	}

	path, err := Path("", dir)
	require.NoError(t, err)
	configRoot, err := PathRoot()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(configRoot, dir), path)

	path, err = Path("altroot", dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("altroot", dir), path)

	path, err = Path("altroot", absdir)
	require.NoError(t, err)
	require.Equal(t, filepath.Clean(absdir), path)

	path, err = Path("altroot", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("altroot", DefaultConfigFile), path)
}

func TestPathRootEnv(t *testing.T) {
	t.Setenv(EnvDir, "/somewhere/else")
	root, err := PathRoot()
	require.NoError(t, err)
	require.Equal(t, "/somewhere/else", root)
}

func TestSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	cfgFile, err := Path(tmpDir, "")
	require.NoError(t, err)
	require.Equal(t, tmpDir, filepath.Dir(cfgFile), "wrong root dir")

	cfg := New()
	cfg.Policy.Except = []string{"42"}
	cfgBytes, err := Marshal(cfg)
	require.NoError(t, err)

	require.NoError(t, cfg.Save(cfgFile))

	cfg2, err := Load(cfgFile)
	require.NoError(t, err)
	cfg2Bytes, err := Marshal(cfg2)
	require.NoError(t, err)

	require.True(t, bytes.Equal(cfgBytes, cfg2Bytes), "config data different after being loaded")
}

func TestLoadNotInitialized(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestLoadPopulatesUnset(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config")
	err := os.WriteFile(cfgFile, []byte(`{"Version": 1, "Ingest": {"WorkerCount": 9}}`), 0o644)
	require.NoError(t, err)

	cfg, err := Load(cfgFile)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Ingest.WorkerCount)
	require.Equal(t, NewIngest().QueueSize, cfg.Ingest.QueueSize)
	require.Equal(t, NewAddresses(), cfg.Addresses)
	require.Equal(t, "none", cfg.Archive.Type)
	require.Equal(t, "pebble", cfg.EventStore.Type)
	require.True(t, cfg.Policy.Allow)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestUpgradeConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config")
	err := os.WriteFile(cfgFile, []byte(`{"Version": 0}`), 0o644)
	require.NoError(t, err)

	cfg, err := Load(cfgFile)
	require.NoError(t, err)
	require.NoError(t, cfg.UpgradeConfig(cfgFile))
	require.FileExists(t, cfgFile+".v0")

	cfg, err = Load(cfgFile)
	require.NoError(t, err)
	require.Equal(t, Version, cfg.Version)
}

func TestByteSize(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("2Mi")))
	require.Equal(t, ByteSize(2<<20), b)
	require.NoError(t, b.UnmarshalText([]byte("3ki")))
	require.Equal(t, ByteSize(3072), b)
	require.NoError(t, b.UnmarshalText([]byte("17")))
	require.Equal(t, "17", b.String())
	require.Equal(t, "1Gi", ByteSize(1<<30).String())
	require.Error(t, b.UnmarshalText([]byte("lots")))
}

func TestDurationJSON(t *testing.T) {
	data, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	require.Equal(t, `"1m30s"`, string(data))

	var d Duration
	require.NoError(t, json.Unmarshal(data, &d))
	require.Equal(t, Duration(90*time.Second), d)
}
