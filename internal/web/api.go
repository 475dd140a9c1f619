package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"planline/internal/model"
	"planline/internal/store"
)

// ActorHeader lets API clients name the actor recorded in the event log.
const ActorHeader = "X-Planline-Actor"

const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) origin(r *http.Request) store.Origin {
	actor := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actor == "" {
		actor = s.cfg.ActorID
	}
	return store.Origin{Actor: actor, Source: store.SourceAPI}
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil
	}
	return json.Unmarshal(b, v)
}

// storeError maps store failures onto the API's status codes and messages.
func (s *Server) storeError(w http.ResponseWriter, err error, action string) {
	var fe store.InvalidFieldError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Timeline not found")
	case errors.Is(err, store.ErrNoFields):
		writeError(w, http.StatusBadRequest, "No fields to update")
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, fe.Error())
	default:
		s.log.Errorf("%s: %v", action, err)
		writeError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, err, "fetch timelines")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timelines": list})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in store.CreateInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	rec, err := s.store.Create(r.Context(), s.origin(r), in)
	if err != nil {
		s.storeError(w, err, "create timeline")
		return
	}
	s.log.Infof("timeline created id=%s", rec.ID)
	s.bc.notify(listKey)
	writeJSON(w, http.StatusCreated, map[string]any{"timeline": rec})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err, "fetch timeline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": rec})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var p model.Patch
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	id := r.PathValue("id")
	rec, err := s.store.Update(r.Context(), s.origin(r), id, p)
	if err != nil {
		s.storeError(w, err, "update timeline")
		return
	}
	s.log.Debugf("timeline updated id=%s", rec.ID)
	s.bc.notify(rec.ID)
	s.bc.notify(listKey)
	writeJSON(w, http.StatusOK, map[string]any{"timeline": rec})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), s.origin(r), id); err != nil {
		s.storeError(w, err, "delete timeline")
		return
	}
	s.log.Infof("timeline deleted id=%s", id)
	s.bc.notify(id)
	s.bc.notify(listKey)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
