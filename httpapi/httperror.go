package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/blobd/blobd/apierror"
)

// errorBody is the JSON shape of every non-2xx response, per spec §6.
type errorBody struct {
	Error   apierror.Kind `json:"error"`
	Message string        `json:"message"`
}

var statusByKind = map[apierror.Kind]int{
	apierror.KindNotFound:         http.StatusNotFound,
	apierror.KindInvalidToken:     http.StatusUnauthorized,
	apierror.KindInvalidReference: http.StatusBadRequest,
	apierror.KindInternal:         http.StatusInternalServerError,
}

// writeError maps err to a status code via its apierror.Kind and writes
// the structured JSON body. Internal-kind errors never leak their
// underlying cause to the client (spec §7). writeError itself does not
// log the error.
func writeError(w http.ResponseWriter, err error) {
	kind := apierror.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if kind == apierror.KindInternal {
		message = "internal error"
	}

	writeJSON(w, status, errorBody{Error: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
