package admin

import (
	"fmt"
	"net/http"
	"sort"

	logging "github.com/ipfs/go-log/v2"
	"github.com/sentrytypes/sentrytypes/internal/httpserver"
)

// setLogLevel changes the level of the logging subsystems matched by each
// query parameter key, a regular expression, to the parameter value.
func setLogLevel(w http.ResponseWriter, r *http.Request) {
	if !httpserver.MethodOK(w, r, http.MethodPost) {
		return
	}

	query := r.URL.Query()
	if len(query) == 0 {
		http.Error(w, "no <subsystem>=<level> query parameters given", http.StatusBadRequest)
		return
	}

	// Check every level before changing any.
	for ss := range query {
		if query.Get(ss) == "" {
			http.Error(w, fmt.Sprintf("no level for subsystem %s", ss), http.StatusBadRequest)
			return
		}
		if _, err := logging.LevelFromString(query.Get(ss)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	for ss := range query {
		level := query.Get(ss)
		if err := logging.SetLogLevelRegex(ss, level); err != nil {
			log.Errorw("Cannot set log level", "subsystem", ss, "level", level, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Infow("Log level changed", "subsystem", ss, "level", level)
	}
}

// listLogSubSystems writes the sorted names of the logging subsystems as a
// JSON array.
func listLogSubSystems(w http.ResponseWriter, r *http.Request) {
	if !httpserver.MethodOK(w, r, http.MethodGet) {
		return
	}
	subsystems := logging.GetSubsystems()
	sort.Strings(subsystems)
	httpserver.WriteJson(w, http.StatusOK, subsystems)
}
