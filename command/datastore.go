package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	leveldb "github.com/ipfs/go-ds-leveldb"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/fsutil"
)

const (
	dsInfoPrefix = "/dsInfo/"
	dsVersionKey = "version"
	dsVersion    = "001"
)

// createDatastore opens the datastore that project keys are kept in. The
// returned directory is empty for a memory datastore.
func createDatastore(ctx context.Context, configRoot string, cfg config.Datastore) (datastore.Batching, string, error) {
	switch cfg.Type {
	case "memory":
		return dssync.MutexWrap(datastore.NewMapDatastore()), "", nil
	case "levelds":
	default:
		return nil, "", fmt.Errorf("unsupported datastore type %q", cfg.Type)
	}

	dir, err := fsutil.ResolveDir(configRoot, cfg.Dir)
	if err != nil {
		return nil, "", err
	}
	if err = fsutil.DirWritable(dir); err != nil {
		return nil, "", err
	}
	ds, err := leveldb.NewDatastore(dir, nil)
	if err != nil {
		return nil, "", err
	}
	if err = checkDatastoreVersion(ctx, ds); err != nil {
		ds.Close()
		return nil, "", err
	}
	return ds, dir, nil
}

// checkDatastoreVersion records the datastore layout version in a new
// datastore and refuses to open one written with a different layout.
func checkDatastoreVersion(ctx context.Context, ds datastore.Batching) error {
	verKey := datastore.NewKey(dsInfoPrefix + dsVersionKey)
	data, err := ds.Get(ctx, verKey)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			return fmt.Errorf("cannot check datastore: %w", err)
		}
		if err = ds.Put(ctx, verKey, []byte(dsVersion)); err != nil {
			return fmt.Errorf("cannot write datastore version: %w", err)
		}
		return ds.Sync(ctx, verKey)
	}
	if string(data) != dsVersion {
		return fmt.Errorf("datastore version %s is not supported, expected %s", data, dsVersion)
	}
	return nil
}
