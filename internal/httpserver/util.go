// Package httpserver provides functionality common to the daemon's HTTP
// servers.
package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/apierror"
)

var log = logging.Logger("sentrytypes/http")

// MethodOK writes a 405 response and returns false unless r uses one of
// methods.
func MethodOK(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "", http.StatusMethodNotAllowed)
	return false
}

func WriteJsonResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Errorw("Cannot write response", "err", err)
	}
}

// WriteJson marshals v and writes it with status.
func WriteJson(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorw("Cannot encode response", "err", err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	WriteJsonResponse(w, status, body)
}

// errorBody is the JSON error response expected by Sentry clients.
type errorBody struct {
	Detail string `json:"detail"`
}

// HandleError writes err as a JSON error response. The status comes from an
// apierror.Error in err and defaults to 400. Server errors are logged and
// their text is not sent to the client.
func HandleError(w http.ResponseWriter, err error, reqType string) {
	status := apierror.Status(err, http.StatusBadRequest)
	if status >= 500 {
		msg := fmt.Sprintf("Cannot handle %s request", strings.ToUpper(reqType))
		log.Errorw(msg, "err", err, "status", status)
		WriteJson(w, status, errorBody{Detail: http.StatusText(status)})
		return
	}
	msg := fmt.Sprintf("Bad %s request", strings.ToUpper(reqType))
	log.Infow(msg, "err", err, "status", status)
	WriteJson(w, status, errorBody{Detail: err.Error()})
}
