package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sentrytypes/sentrytypes/dsn"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

// Archive keeps the raw payloads of received events in a file store.
type Archive struct {
	store Interface
}

// NewArchive returns an archive writing to store.
func NewArchive(store Interface) *Archive {
	return &Archive{store: store}
}

// Store returns the underlying file store.
func (a *Archive) Store() Interface {
	return a.store
}

// ArchivePath returns the path of an event payload:
// <project>/<yyyy>/<mm>/<dd>/<event id>.json, dated by when it was received.
func ArchivePath(projectID dsn.ProjectID, eventID v7.EventID, received time.Time) string {
	received = received.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s.json", projectID,
		received.Year(), int(received.Month()), received.Day(), eventID)
}

// Save writes payload and returns the stored file.
func (a *Archive) Save(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID, received time.Time, payload []byte) (*File, error) {
	p := ArchivePath(projectID, eventID, received)
	file, err := a.store.Put(ctx, p, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cannot archive event %s: %w", eventID, err)
	}
	log.Debugw("Archived event payload", "path", p, "size", file.Size)
	return file, nil
}

// Load reads an archived payload.
func (a *Archive) Load(ctx context.Context, projectID dsn.ProjectID, eventID v7.EventID, received time.Time) ([]byte, error) {
	_, rc, err := a.store.Get(ctx, ArchivePath(projectID, eventID, received))
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Prune deletes the archived payloads of a project that were received
// before cutoff and returns how many were deleted.
func (a *Archive) Prune(ctx context.Context, projectID dsn.ProjectID, cutoff time.Time) (int, error) {
	return a.prune(ctx, projectID.String()+"/", cutoff)
}

// PruneAll deletes the archived payloads of every project, including
// projects that no longer have keys, that were received before cutoff.
// Files outside the archive layout are left alone.
func (a *Archive) PruneAll(ctx context.Context, cutoff time.Time) (int, error) {
	return a.prune(ctx, "", cutoff)
}

func (a *Archive) prune(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	files, errs := a.store.List(ctx, prefix, true)
	var n int
	for file := range files {
		if !file.Modified.Before(cutoff) || !isArchivePath(file.Path) {
			continue
		}
		if err := a.store.Delete(ctx, file.Path); err != nil {
			return n, err
		}
		n++
	}
	if err := <-errs; err != nil {
		return n, err
	}
	return n, nil
}

func isArchivePath(p string) bool {
	project, rest, ok := strings.Cut(p, "/")
	if !ok || !strings.HasSuffix(rest, ".json") {
		return false
	}
	_, err := dsn.ParseProjectID(project)
	return err == nil
}
