// Package registry keeps the project keys that clients authenticate with.
package registry

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/auth"
	"github.com/sentrytypes/sentrytypes/config"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/internal/metrics"
	"github.com/sentrytypes/sentrytypes/internal/registry/policy"
	"go.opencensus.io/stats"
)

const projectKeyPath = "/project-keys"

var log = logging.Logger("sentrytypes/registry")

// ProjectKey is a key pair that lets a client submit events to a project.
type ProjectKey struct {
	ProjectID dsn.ProjectID
	PublicKey string
	SecretKey string
	Label     string `json:",omitempty"`
	Disabled  bool
	Created   time.Time
}

func (k *ProjectKey) dsKey() datastore.Key {
	return datastore.NewKey(path.Join(projectKeyPath, k.PublicKey))
}

// DSN returns the DSN a client uses to send events for this key to the
// server at scheme://host:port.
func (k *ProjectKey) DSN(scheme dsn.Scheme, host string, port uint16) (*dsn.Dsn, error) {
	return dsn.New(scheme, k.PublicKey, k.SecretKey, host, port, "", k.ProjectID)
}

// Registry holds the project keys in memory and persists them in a
// datastore.
type Registry struct {
	dstore datastore.Datastore
	keys   map[string]*ProjectKey
	mutex  sync.RWMutex
	policy *policy.Policy
}

// New creates a registry and loads the keys persisted in dstore.
func New(ctx context.Context, dstore datastore.Datastore, cfg config.Policy) (*Registry, error) {
	pol, err := policy.New(cfg)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		dstore: dstore,
		keys:   make(map[string]*ProjectKey),
		policy: pol,
	}
	count, err := r.loadPersistedKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load project keys: %w", err)
	}
	log.Infow("Loaded project keys", "count", count)
	r.recordCount()
	return r, nil
}

// NewKeyPair returns a random public and secret key.
func NewKeyPair() (string, string) {
	return simpleUUID(), simpleUUID()
}

func simpleUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Add creates a new key for projectID.
func (r *Registry) Add(ctx context.Context, projectID dsn.ProjectID, label string) (ProjectKey, error) {
	public, secret := NewKeyPair()
	key := ProjectKey{
		ProjectID: projectID,
		PublicKey: public,
		SecretKey: secret,
		Label:     label,
		Created:   time.Now().UTC(),
	}
	if err := r.Put(ctx, key); err != nil {
		return ProjectKey{}, err
	}
	return key, nil
}

// Put stores key. It fails with ErrKeyExists if the public key is taken by
// another project.
func (r *Registry) Put(ctx context.Context, key ProjectKey) error {
	if key.PublicKey == "" {
		return fmt.Errorf("%w: empty public key", ErrUnknownKey)
	}
	if key.Created.IsZero() {
		key.Created = time.Now().UTC()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if old, ok := r.keys[key.PublicKey]; ok && old.ProjectID != key.ProjectID {
		return ErrKeyExists
	}
	if err := r.persist(ctx, &key); err != nil {
		return err
	}
	r.keys[key.PublicKey] = &key
	r.recordCountLocked()
	log.Infow("Stored project key", "project", key.ProjectID, "key", key.PublicKey)
	return nil
}

// SetDisabled enables or disables a key.
func (r *Registry) SetDisabled(ctx context.Context, publicKey string, disabled bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	old, ok := r.keys[publicKey]
	if !ok {
		return ErrUnknownKey
	}
	key := *old
	key.Disabled = disabled
	if err := r.persist(ctx, &key); err != nil {
		return err
	}
	r.keys[publicKey] = &key
	return nil
}

// Remove deletes a key.
func (r *Registry) Remove(ctx context.Context, publicKey string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key, ok := r.keys[publicKey]
	if !ok {
		return ErrUnknownKey
	}
	if r.dstore != nil {
		if err := r.dstore.Delete(ctx, key.dsKey()); err != nil {
			return err
		}
		if err := r.dstore.Sync(ctx, datastore.NewKey(projectKeyPath)); err != nil {
			return fmt.Errorf("cannot sync project keys: %w", err)
		}
	}
	delete(r.keys, publicKey)
	r.recordCountLocked()
	log.Infow("Removed project key", "project", key.ProjectID, "key", publicKey)
	return nil
}

// Get returns the key with the given public key.
func (r *Registry) Get(publicKey string) (ProjectKey, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	key, ok := r.keys[publicKey]
	if !ok {
		return ProjectKey{}, false
	}
	return *key, true
}

// List returns the keys of projectID, or all keys if projectID is zero,
// ordered by project and creation time.
func (r *Registry) List(projectID dsn.ProjectID) []ProjectKey {
	r.mutex.RLock()
	keys := make([]ProjectKey, 0, len(r.keys))
	for _, key := range r.keys {
		if projectID == 0 || key.ProjectID == projectID {
			keys = append(keys, *key)
		}
	}
	r.mutex.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProjectID != keys[j].ProjectID {
			return keys[i].ProjectID < keys[j].ProjectID
		}
		if !keys[i].Created.Equal(keys[j].Created) {
			return keys[i].Created.Before(keys[j].Created)
		}
		return keys[i].PublicKey < keys[j].PublicKey
	})
	return keys
}

// Authenticate checks that the credentials in a may submit events to
// projectID. A secret key is only checked when a carries one, since
// browser clients send the public key alone.
func (r *Registry) Authenticate(projectID dsn.ProjectID, a auth.Auth) (ProjectKey, error) {
	if !r.policy.Allowed(projectID) {
		return ProjectKey{}, ErrProjectNotAllowed
	}
	key, ok := r.Get(a.Key)
	if !ok {
		return ProjectKey{}, ErrUnknownKey
	}
	if key.ProjectID != projectID {
		return ProjectKey{}, ErrProjectMismatch
	}
	if key.Disabled {
		return ProjectKey{}, ErrKeyDisabled
	}
	if !a.IsPublic() && subtle.ConstantTimeCompare([]byte(a.Secret), []byte(key.SecretKey)) != 1 {
		return ProjectKey{}, ErrBadSecret
	}
	return key, nil
}

// SetPolicy replaces the project policy.
func (r *Registry) SetPolicy(cfg config.Policy) error {
	return r.policy.Config(cfg)
}

// Policy returns the project policy.
func (r *Registry) Policy() *policy.Policy {
	return r.policy
}

// Close closes the datastore.
func (r *Registry) Close() error {
	if r.dstore == nil {
		return nil
	}
	return r.dstore.Close()
}

func (r *Registry) persist(ctx context.Context, key *ProjectKey) error {
	if r.dstore == nil {
		return nil
	}
	value, err := json.Marshal(key)
	if err != nil {
		return err
	}
	dsKey := key.dsKey()
	if err = r.dstore.Put(ctx, dsKey, value); err != nil {
		return err
	}
	if err = r.dstore.Sync(ctx, dsKey); err != nil {
		return fmt.Errorf("cannot sync project key: %w", err)
	}
	return nil
}

func (r *Registry) loadPersistedKeys(ctx context.Context) (int, error) {
	if r.dstore == nil {
		return 0, nil
	}
	results, err := r.dstore.Query(ctx, query.Query{Prefix: projectKeyPath})
	if err != nil {
		return 0, err
	}
	defer results.Close()

	var count int
	for result := range results.Next() {
		if result.Error != nil {
			return 0, fmt.Errorf("cannot read project key: %w", result.Error)
		}
		key := new(ProjectKey)
		if err = json.Unmarshal(result.Entry.Value, key); err != nil {
			return 0, fmt.Errorf("cannot decode project key %s: %w", result.Entry.Key, err)
		}
		if key.PublicKey != path.Base(result.Entry.Key) {
			log.Warnw("Skipping project key stored under wrong name", "dskey", result.Entry.Key)
			continue
		}
		r.keys[key.PublicKey] = key
		count++
	}
	return count, nil
}

func (r *Registry) recordCount() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	r.recordCountLocked()
}

func (r *Registry) recordCountLocked() {
	stats.Record(context.Background(), metrics.ProjectKeys.M(int64(len(r.keys))))
}
