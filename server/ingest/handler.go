package ingestserver

import (
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sentrytypes/sentrytypes/apierror"
	"github.com/sentrytypes/sentrytypes/auth"
	"github.com/sentrytypes/sentrytypes/dsn"
	"github.com/sentrytypes/sentrytypes/internal/httpserver"
	"github.com/sentrytypes/sentrytypes/internal/ingest"
	"github.com/sentrytypes/sentrytypes/internal/metrics"
	"github.com/sentrytypes/sentrytypes/internal/registry"
	"go.opencensus.io/tag"
)

const (
	allowedHeaders = "X-Sentry-Auth, X-Requested-With, Origin, Accept, Content-Type, Content-Encoding, Authentication, Authorization"
	exposedHeaders = "X-Sentry-Error, X-Request-Id, Retry-After"
	retryAfterSecs = "1"
)

var (
	errMissingAuth     = errors.New("missing authorization information")
	errUnknownEncoding = errors.New("unsupported content encoding")
)

type handler struct {
	ingester     *ingest.Ingester
	reg          *registry.Registry
	maxEventSize int64
	healthMsg    string
}

type storeResponse struct {
	ID string `json:"id"`
}

func enableCors(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Expose-Headers", exposedHeaders)
}

func (h *handler) preflight(w http.ResponseWriter, r *http.Request) {
	enableCors(w)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
	w.Header().Set("Access-Control-Max-Age", "3600")
	w.WriteHeader(http.StatusOK)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	enableCors(w)
	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, h.healthMsg, http.StatusOK)
}

// store handles POST /api/{project_id}/store/.
func (h *handler) store(w http.ResponseWriter, r *http.Request) {
	enableCors(w)
	reqID := xid.New().String()
	w.Header().Set("X-Request-Id", reqID)

	ctx, err := tag.New(r.Context(), tag.Insert(metrics.Transport, "http"))
	if err != nil {
		ctx = r.Context()
	}

	projectID, err := dsn.ParseProjectID(mux.Vars(r)["project_id"])
	if err != nil {
		handleError(w, reqID, apierror.New(err, http.StatusNotFound))
		return
	}

	a, err := requestAuth(r)
	if err != nil {
		handleError(w, reqID, apierror.New(err, http.StatusUnauthorized))
		return
	}
	if _, err = h.reg.Authenticate(projectID, a); err != nil {
		handleError(w, reqID, authError(err))
		return
	}

	payload, err := h.readBody(r)
	if err != nil {
		handleError(w, reqID, err)
		return
	}

	eventID, err := h.ingester.Submit(ctx, projectID, payload)
	if err != nil {
		if errors.Is(err, ingest.ErrQueueFull) {
			w.Header().Set("Retry-After", retryAfterSecs)
		}
		handleError(w, reqID, submitError(err))
		return
	}

	log.Debugw("Accepted event", "request", reqID, "project", projectID, "event", eventID, "client", a.Client)
	httpserver.WriteJson(w, http.StatusOK, storeResponse{ID: eventID.String()})
}

// requestAuth reads client credentials from the X-Sentry-Auth header, a
// Sentry Authorization header, or sentry_* query parameters, in that order.
func requestAuth(r *http.Request) (auth.Auth, error) {
	if value := r.Header.Get("X-Sentry-Auth"); value != "" {
		return auth.ParseHeader(value)
	}
	if value := r.Header.Get("Authorization"); value != "" {
		a, err := auth.ParseHeader(value)
		if !errors.Is(err, auth.ErrNonSentryAuth) {
			return a, err
		}
	}
	query := r.URL.Query()
	if query.Get("sentry_key") != "" {
		return auth.FromQuery(query)
	}
	return auth.Auth{}, errMissingAuth
}

// readBody reads and decompresses the request body, refusing bodies larger
// than maxEventSize.
func (h *handler) readBody(r *http.Request) ([]byte, error) {
	var body io.Reader = r.Body
	encoding := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		if r.ContentLength > h.maxEventSize {
			return nil, apierror.New(ingest.ErrTooLarge, http.StatusRequestEntityTooLarge)
		}
	case "gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, apierror.New(fmt.Errorf("bad gzip body: %w", err), http.StatusBadRequest)
		}
		defer zr.Close()
		body = zr
	case "deflate":
		zr, err := zlib.NewReader(r.Body)
		if err != nil {
			return nil, apierror.New(fmt.Errorf("bad deflate body: %w", err), http.StatusBadRequest)
		}
		defer zr.Close()
		body = zr
	default:
		return nil, apierror.New(fmt.Errorf("%w: %s", errUnknownEncoding, encoding), http.StatusUnsupportedMediaType)
	}

	payload, err := io.ReadAll(io.LimitReader(body, h.maxEventSize+1))
	if err != nil {
		return nil, apierror.New(fmt.Errorf("cannot read body: %w", err), http.StatusBadRequest)
	}
	if int64(len(payload)) > h.maxEventSize {
		return nil, apierror.New(ingest.ErrTooLarge, http.StatusRequestEntityTooLarge)
	}
	return payload, nil
}

func authError(err error) error {
	switch {
	case errors.Is(err, registry.ErrProjectNotAllowed), errors.Is(err, registry.ErrKeyDisabled):
		return apierror.New(err, http.StatusForbidden)
	default:
		return apierror.New(err, http.StatusUnauthorized)
	}
}

func submitError(err error) error {
	switch {
	case errors.Is(err, ingest.ErrTooLarge):
		return apierror.New(err, http.StatusRequestEntityTooLarge)
	case errors.Is(err, ingest.ErrQueueFull):
		return apierror.New(err, http.StatusTooManyRequests)
	case errors.Is(err, registry.ErrProjectNotAllowed):
		return apierror.New(err, http.StatusForbidden)
	case errors.Is(err, ingest.ErrDiskFull):
		return apierror.New(err, http.StatusInsufficientStorage)
	case errors.Is(err, ingest.ErrClosed):
		return apierror.New(err, http.StatusServiceUnavailable)
	case errors.Is(err, ingest.ErrInvalidPayload):
		return apierror.New(err, http.StatusBadRequest)
	}
	return apierror.New(err, http.StatusInternalServerError)
}

func handleError(w http.ResponseWriter, reqID string, err error) {
	if apierror.Status(err, http.StatusBadRequest) < 500 {
		w.Header().Set("X-Sentry-Error", err.Error())
	}
	log.Debugw("Refused store request", "request", reqID, "err", err)
	httpserver.HandleError(w, err, "store")
}
