package httpapi

import (
	"net/http"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.timeline.Categories().ListProjects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.timeline.Categories().GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleInsertProject(w http.ResponseWriter, r *http.Request) {
	var p types.Project
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.timeline.Categories().InsertProject(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var p types.Project
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	project, err := s.timeline.Categories().UpdateProject(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleListColors(w http.ResponseWriter, r *http.Request) {
	colors, err := s.timeline.Categories().ListColors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, colors)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.timeline.Categories().ListTags(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleInsertTag(w http.ResponseWriter, r *http.Request) {
	var t types.Tag
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	tag, err := s.timeline.Categories().InsertTag(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var t types.Tag
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	tag, err := s.timeline.Categories().UpdateTag(r.Context(), r.PathValue("id"), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}
