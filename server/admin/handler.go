package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sentrytypes/sentrytypes/admin/model"
	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/filestore"
	"github.com/sentrytypes/sentrytypes/internal/eventstore"
	"github.com/sentrytypes/sentrytypes/internal/httpserver"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	v7 "github.com/sentrytypes/sentrytypes/protocol/v7"
)

const maxRequestSize = 64 << 10

type adminHandler struct {
	opts          config
	ingester      *ingest.Ingester
	reg           *registry.Registry
	store         eventstore.Interface
	archive       *filestore.Archive
	reloadErrChan chan<- chan error
	healthMsg     string
}

func (h *adminHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, h.healthMsg, http.StatusOK)
}

func (h *adminHandler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.reloadErrChan == nil {
		http.Error(w, "reload not supported", http.StatusNotImplemented)
		return
	}
	errChan := make(chan error)
	h.reloadErrChan <- errChan
	err := <-errChan
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ----- project key handlers -----

func (h *adminHandler) toModel(key registry.ProjectKey) model.ProjectKey {
	m := model.ProjectKey{
		ProjectID: key.ProjectID,
		PublicKey: key.PublicKey,
		SecretKey: key.SecretKey,
		Label:     key.Label,
		Disabled:  key.Disabled,
		Created:   key.Created,
	}
	if h.opts.dsnHost != "" {
		d, err := key.DSN(h.opts.dsnScheme, h.opts.dsnHost, h.opts.dsnPort)
		if err != nil {
			log.Errorw("Cannot make DSN for key", "err", err, "key", key.PublicKey)
		} else {
			m.DSN = d.String()
		}
	}
	return m
}

func (h *adminHandler) listKeys(w http.ResponseWriter, r *http.Request) {
	var projectID dsn.ProjectID
	if p := r.URL.Query().Get("project"); p != "" {
		var err error
		projectID, err = dsn.ParseProjectID(p)
		if err != nil {
			httpserver.HandleError(w, err, "list keys")
			return
		}
	}
	keys := h.reg.List(projectID)
	out := make([]model.ProjectKey, len(keys))
	for i := range keys {
		out[i] = h.toModel(keys[i])
	}
	httpserver.WriteJson(w, http.StatusOK, out)
}

func (h *adminHandler) addKey(w http.ResponseWriter, r *http.Request) {
	var req model.AddKeyRequest
	if err := readJson(r, &req); err != nil {
		httpserver.HandleError(w, err, "add key")
		return
	}
	if req.ProjectID == 0 {
		httpserver.HandleError(w, dsn.ErrEmptyProjectID, "add key")
		return
	}
	key, err := h.reg.Add(r.Context(), req.ProjectID, req.Label)
	if err != nil {
		httpserver.HandleError(w, apierror.New(err, http.StatusInternalServerError), "add key")
		return
	}
	httpserver.WriteJson(w, http.StatusCreated, h.toModel(key))
}

func (h *adminHandler) getKey(w http.ResponseWriter, r *http.Request) {
	key, ok := h.reg.Get(mux.Vars(r)["key"])
	if !ok {
		http.Error(w, "", http.StatusNotFound)
		return
	}
	httpserver.WriteJson(w, http.StatusOK, h.toModel(key))
}

func (h *adminHandler) removeKey(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Remove(r.Context(), mux.Vars(r)["key"]); err != nil {
		httpserver.HandleError(w, keyError(err), "remove key")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *adminHandler) setDisabled(w http.ResponseWriter, r *http.Request) {
	publicKey := mux.Vars(r)["key"]
	var req model.SetDisabledRequest
	if err := readJson(r, &req); err != nil {
		httpserver.HandleError(w, err, "set disabled")
		return
	}
	if err := h.reg.SetDisabled(r.Context(), publicKey, req.Disabled); err != nil {
		httpserver.HandleError(w, keyError(err), "set disabled")
		return
	}
	key, _ := h.reg.Get(publicKey)
	log.Infow("Changed project key state", "key", publicKey, "disabled", req.Disabled)
	httpserver.WriteJson(w, http.StatusOK, h.toModel(key))
}

func keyError(err error) error {
	if errors.Is(err, registry.ErrUnknownKey) {
		return apierror.New(err, http.StatusNotFound)
	}
	return apierror.New(err, http.StatusInternalServerError)
}

// ----- event handlers -----

func eventModel(ev *eventstore.StoredEvent) model.Event {
	return model.Event{
		ProjectID: ev.ProjectID,
		EventID:   ev.EventID().String(),
		Title:     ev.Event.Title(),
		Received:  ev.Received,
		Archive:   ev.Archive,
		Event:     ev.Event,
		Meta:      ev.Meta,
	}
}

func (h *adminHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	projectID, err := dsn.ParseProjectID(mux.Vars(r)["project"])
	if err != nil {
		httpserver.HandleError(w, err, "list events")
		return
	}
	limit := h.opts.listLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			httpserver.HandleError(w, fmt.Errorf("invalid limit %q", l), "list events")
			return
		}
	}

	events, err := h.store.List(r.Context(), projectID, limit)
	if err != nil {
		httpserver.HandleError(w, apierror.New(err, http.StatusInternalServerError), "list events")
		return
	}
	out := make([]model.Event, len(events))
	for i, ev := range events {
		out[i] = eventModel(ev)
	}
	httpserver.WriteJson(w, http.StatusOK, out)
}

func (h *adminHandler) lookupEvent(r *http.Request) (*eventstore.StoredEvent, error) {
	vars := mux.Vars(r)
	projectID, err := dsn.ParseProjectID(vars["project"])
	if err != nil {
		return nil, err
	}
	eventID, err := v7.ParseEventID(vars["id"])
	if err != nil {
		return nil, err
	}
	ev, err := h.store.Get(r.Context(), projectID, eventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			return nil, apierror.New(err, http.StatusNotFound)
		}
		return nil, apierror.New(err, http.StatusInternalServerError)
	}
	return ev, nil
}

func (h *adminHandler) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.lookupEvent(r)
	if err != nil {
		httpserver.HandleError(w, err, "get event")
		return
	}
	httpserver.WriteJson(w, http.StatusOK, eventModel(ev))
}

func (h *adminHandler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.lookupEvent(r)
	if err != nil {
		httpserver.HandleError(w, err, "delete event")
		return
	}
	if err = h.store.Delete(r.Context(), ev.ProjectID, ev.EventID()); err != nil {
		httpserver.HandleError(w, apierror.New(err, http.StatusInternalServerError), "delete event")
		return
	}
	if h.archive != nil && ev.Archive != "" {
		if err = h.archive.Store().Delete(r.Context(), ev.Archive); err != nil && !errors.Is(err, filestore.ErrNotFound) {
			log.Errorw("Cannot delete archived payload", "err", err, "path", ev.Archive)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// getPayload writes the raw payload the event was received with.
func (h *adminHandler) getPayload(w http.ResponseWriter, r *http.Request) {
	ev, err := h.lookupEvent(r)
	if err != nil {
		httpserver.HandleError(w, err, "get payload")
		return
	}
	if h.archive == nil || ev.Archive == "" {
		http.Error(w, "payload not archived", http.StatusNotFound)
		return
	}
	_, rc, err := h.archive.Store().Get(r.Context(), ev.Archive)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, filestore.ErrNotFound) {
			status = http.StatusNotFound
		}
		httpserver.HandleError(w, apierror.New(err, status), "get payload")
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err = io.Copy(w, rc); err != nil {
		log.Errorw("Cannot write payload", "err", err)
	}
}

// pruneEvents deletes events older than the retention query parameter.
func (h *adminHandler) pruneEvents(w http.ResponseWriter, r *http.Request) {
	retention, err := time.ParseDuration(r.URL.Query().Get("retention"))
	if err != nil || retention <= 0 {
		httpserver.HandleError(w, errors.New("retention must be a positive duration"), "prune")
		return
	}
	n, err := h.ingester.Prune(r.Context(), retention)
	if err != nil {
		httpserver.HandleError(w, apierror.New(err, http.StatusInternalServerError), "prune")
		return
	}
	httpserver.WriteJson(w, http.StatusOK, model.PruneResponse{Deleted: n})
}

func readJson(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("cannot decode request: %w", err)
	}
	return nil
}
