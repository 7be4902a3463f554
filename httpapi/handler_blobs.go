package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/blobd/blobd/apierror"
	"github.com/blobd/blobd/engine"
	"github.com/blobd/blobd/reference"
	"github.com/gorilla/mux"
)

// handleUpload streams a multipart upload's parts straight through
// Engine.Add, one at a time, and never buffers a whole part in memory
// (spec §4.4). Each part is ingested independently: one failing part does
// not abort siblings already committed, and the response reports
// references only for the parts that succeeded, in the order received.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Now().Add(IdleBodyTimeout))

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.InvalidReference("malformed multipart body"))
		return
	}

	refs := []string{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(refs) == 0 && isTimeout(err) {
				writeError(w, apierror.InvalidReference("request body timeout"))
				return
			}
			// Client disconnected or the stream was otherwise cut short;
			// report whatever parts were already committed durably.
			break
		}

		ref, err := s.engine.Add(part, part.FileName())
		part.Close()
		if err != nil {
			s.log.WithError(err).Warn("part ingest failed, skipping")
			continue
		}

		refs = append(refs, ref.String())
	}

	writeJSON(w, http.StatusOK, refs)
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	return errors.As(err, &te) && te.Timeout()
}

// parseReference extracts and validates the {ref} path variable, short-
// circuiting to InvalidReference for malformed hex (spec §4.4: reference
// parsing happens at the router boundary).
func parseReference(r *http.Request) (reference.Reference, error) {
	hex := mux.Vars(r)["ref"]
	ref, err := reference.FromHex(hex)
	if err != nil {
		return reference.Reference{}, apierror.InvalidReference(err.Error())
	}
	return ref, nil
}

// handleDownload streams a blob's content with derived headers (spec
// §4.4/§6). The content is read on demand by http.ResponseWriter's Write
// calls via io.Copy — it is never materialized in full beforehand.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r)
	if err != nil {
		writeError(w, err)
		return
	}

	blob, err := s.engine.Get(ref, false)
	if err != nil {
		writeError(w, err)
		return
	}
	defer blob.Close()

	setBlobHeaders(w, blob.Metadata)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, blob)
}

// handleHead is handleDownload without the body.
func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r)
	if err != nil {
		writeError(w, err)
		return
	}

	meta, err := s.engine.Head(ref)
	if err != nil {
		writeError(w, err)
		return
	}

	setBlobHeaders(w, meta)
	w.WriteHeader(http.StatusOK)
}

func setBlobHeaders(w http.ResponseWriter, m engine.Metadata) {
	for k, v := range m.Headers() {
		w.Header().Set(k, v)
	}
}

// handleDelete removes a stored blob, 204 on success (spec §4.4).
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ref, err := parseReference(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.Delete(ref); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
