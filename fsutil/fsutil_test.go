package fsutil_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sentrytypes/sentrytypes/fsutil"
	"github.com/sentrytypes/sentrytypes/fsutil/disk"
	"github.com/stretchr/testify/require"
)

func TestDirWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, fsutil.DirWritable(dir))
	require.True(t, fsutil.FileExists(dir))
	require.NoError(t, fsutil.DirWritable(dir))
	require.Error(t, fsutil.DirWritable(""))
}

func TestFileChanged(t *testing.T) {
	name := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))

	modTime, changed, err := fsutil.FileChanged(name, time.Time{})
	require.NoError(t, err)
	require.True(t, changed)

	_, changed, err = fsutil.FileChanged(name, modTime)
	require.NoError(t, err)
	require.False(t, changed)

	_, _, err = fsutil.FileChanged(name+"-missing", modTime)
	require.Error(t, err)
}

func TestResolveDir(t *testing.T) {
	dir, err := fsutil.ResolveDir("/root/cfg", "events")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/root/cfg", "events"), dir)

	dir, err = fsutil.ResolveDir("/root/cfg", "/var/events")
	require.NoError(t, err)
	require.Equal(t, "/var/events", dir)
}

func TestDiskUsage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("disk usage not supported")
	}
	usage, err := disk.Usage(t.TempDir())
	require.NoError(t, err)
	require.NotZero(t, usage.Total)
	require.GreaterOrEqual(t, usage.Percent, 0.0)
	require.LessOrEqual(t, usage.Percent, 100.0)
}
