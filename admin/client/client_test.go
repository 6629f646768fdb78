package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/sentrytypes/sentrytypes/admin/client"
	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/filestore"
	"github.com/sentrytypes/sentrytypes/internal/eventstore"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
	"github.com/sentrytypes/sentrytypes/server/admin"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*client.Client, *ingest.Ingester) {
	ctx := context.Background()
	reg, err := registry.New(ctx, dssync.MutexWrap(datastore.NewMapDatastore()), config.NewPolicy())
	require.NoError(t, err)
	local, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)
	archive := filestore.NewArchive(local)
	store := eventstore.NewMemory()
	ing, err := ingest.New(config.NewIngest(), reg, store, archive, ingest.WithResults(8))
	require.NoError(t, err)

	reloads := make(chan chan error, 1)
	go func() {
		for errChan := range reloads {
			errChan <- nil
		}
	}()
	s, err := admin.New("127.0.0.1:0", ing, reg, store, archive, reloads)
	require.NoError(t, err)
	go s.Start()
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown(context.Background()))
		close(reloads)
		go func() {
			for range ing.Results() {
			}
		}()
		require.NoError(t, ing.Close())
		require.NoError(t, reg.Close())
	})

	cl, err := client.New(s.URL(), client.WithTimeout(10*time.Second))
	require.NoError(t, err)
	return cl, ing
}

func TestKeys(t *testing.T) {
	ctx := context.Background()
	cl, _ := setup(t)

	key, err := cl.AddKey(ctx, 9, "backend")
	require.NoError(t, err)
	require.Equal(t, dsn.ProjectID(9), key.ProjectID)
	require.Empty(t, key.DSN)

	got, err := cl.GetKey(ctx, key.PublicKey)
	require.NoError(t, err)
	require.Equal(t, key.SecretKey, got.SecretKey)

	got, err = cl.SetKeyDisabled(ctx, key.PublicKey, true)
	require.NoError(t, err)
	require.True(t, got.Disabled)

	keys, err := cl.ListKeys(ctx, 9)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	keys, err = cl.ListKeys(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, keys)

	require.NoError(t, cl.RemoveKey(ctx, key.PublicKey))
	err = cl.RemoveKey(ctx, key.PublicKey)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, apierror.Status(err, 0))
	require.Equal(t, registry.ErrUnknownKey.Error(), err.Error())
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	cl, ing := setup(t)

	payload := []byte(`{"message": "from the client test"}`)
	id, err := ing.Submit(ctx, 3, payload)
	require.NoError(t, err)
	require.NoError(t, (<-ing.Results()).Err)

	events, err := cl.ListEvents(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "from the client test", events[0].Title)

	ev, err := cl.GetEvent(ctx, 3, id)
	require.NoError(t, err)
	require.Equal(t, id.String(), ev.EventID)

	raw, err := cl.GetPayload(ctx, 3, id)
	require.NoError(t, err)
	require.Equal(t, payload, raw)

	n, err := cl.Prune(ctx, time.Hour)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, cl.DeleteEvent(ctx, 3, id))
	_, err = cl.GetEvent(ctx, 3, id)
	require.Equal(t, http.StatusNotFound, apierror.Status(err, 0))
	_, err = cl.GetEvent(ctx, 3, v7.NewEventID())
	require.Error(t, err)
}

func TestConfigCalls(t *testing.T) {
	ctx := context.Background()
	cl, _ := setup(t)

	require.NoError(t, cl.ReloadConfig(ctx))

	subsystems, err := cl.ListLogSubSystems(ctx)
	require.NoError(t, err)
	require.Contains(t, subsystems, "sentrytypes/ingest")

	require.NoError(t, cl.SetLogLevels(ctx, map[string]string{"sentrytypes/ingest": "warn"}))
	err = cl.SetLogLevels(ctx, map[string]string{"sentrytypes/ingest": "loud"})
	require.Equal(t, http.StatusBadRequest, apierror.Status(err, 0))
	require.Error(t, cl.SetLogLevels(ctx, nil))
}
