package httpapi

import (
	"net/http"
	"time"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// entryCursor is the next_before response for entries.
type entryCursor struct {
	EntryTimestamp time.Time `json:"entry_timestamp"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.timeline.Entries().List(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleInsertEntry(w http.ResponseWriter, r *http.Request) {
	var in types.EntryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.timeline.Entries().Insert(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.timeline.Entries().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var in types.EntryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.timeline.Entries().Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	withChildren, err := boolQuery(r, "with_children")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	existed, err := s.timeline.Entries().Delete(r.Context(), r.PathValue("id"), withChildren)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDeleted(w, existed, "entry could not be deleted")
}

func (s *Server) handleEntryBefore(w http.ResponseWriter, r *http.Request) {
	t, err := parseTimestamp("timestamp", r.PathValue("timestamp"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.timeline.Entries().NearestBefore(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entryCursor{EntryTimestamp: found})
}
