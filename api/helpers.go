package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
)

// httpWriteJSON helper function allows to write a JSON response.
func httpWriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	jdata, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	if _, err := w.Write(jdata); err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// httpWriteOK helper function allows to write an OK response.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// electionIDParam parses the election ID from the request URL.
func electionIDParam(r *http.Request) (types.HexBytes, error) {
	var id types.HexBytes
	if err := id.SetString(util.TrimHex(chi.URLParam(r, ElectionURLParam))); err != nil {
		return nil, err
	}
	if len(id) != types.ElectionIDSize {
		return nil, ErrMalformedElectionID
	}
	return id, nil
}
