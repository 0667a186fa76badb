package httpapi

import (
	"net/http"
	"time"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// blockCursor is the next_before response for blocks.
type blockCursor struct {
	BlockTimestamp time.Time `json:"block_timestamp"`
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	rng, err := s.rangeFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	blocks, err := s.timeline.Blocks().List(r.Context(), rng)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleInsertBlock(w http.ResponseWriter, r *http.Request) {
	var in types.BlockInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	block, err := s.timeline.Blocks().Insert(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	block, err := s.timeline.Blocks().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	var in types.BlockInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	block, err := s.timeline.Blocks().Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	removed, err := s.timeline.Blocks().Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDeleted(w, removed, "block could not be deleted")
}

func (s *Server) handleBlockBefore(w http.ResponseWriter, r *http.Request) {
	t, err := parseTimestamp("timestamp", r.PathValue("timestamp"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	found, err := s.timeline.Blocks().NearestBefore(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blockCursor{BlockTimestamp: found})
}

// writeDeleted answers a delete with 204 when a row went away and 409
// otherwise.
func writeDeleted(w http.ResponseWriter, removed bool, message string) {
	if !removed {
		writeJSON(w, http.StatusConflict, errorBody{Error: errorDetail{Code: types.CodeConflict, Message: message}})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
