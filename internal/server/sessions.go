package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meltforce/posereps/internal/models"
	"github.com/meltforce/posereps/internal/storage"
	"github.com/meltforce/posereps/internal/trainer"
)

type createSessionRequest struct {
	Exercise models.ExerciseKind `json:"exercise"`
	Source   string              `json:"source"`
}

type selectExerciseRequest struct {
	Exercise models.ExerciseKind `json:"exercise"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	// An empty body starts a session on the first catalog exercise.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	sess, err := s.sessions.Create(trainer.SessionConfig{
		Source:   req.Source,
		Exercise: req.Exercise,
		Profiles: s.profiles,
		Clock:    s.clock,
		Sinks:    s.sinks,
		Narrator: s.narrator,
		Log:      s.log,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := sess.Snapshot()
	row := models.SessionRow{ID: snap.ID, Source: snap.Source, StartedAt: snap.StartedAt}
	if err := s.store.CreateSession(r.Context(), row); err != nil {
		s.sessions.Remove(snap.ID)
		s.log.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("session started", "session", snap.ID, "source", snap.Source, "exercise", snap.State.Kind)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	rows, err := s.store.QuerySessions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var f models.Frame
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid frame: "+err.Error())
		return
	}

	if f.Switch {
		sess.Next()
		writeJSON(w, http.StatusOK, stateResult(sess.Snapshot()))
		return
	}

	res := sess.Process(r.Context(), s.extractor.FrameAngles(f))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNextExercise(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Next()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSelectExercise(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req selectExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := sess.Select(req.Exercise); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sess, err := s.sessions.Remove(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	snap := sess.Snapshot()
	if err := s.store.EndSession(r.Context(), id, time.Now()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("ending session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("session ended", "session", id, "frames", snap.Frames, "reps", snap.State.Reps)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*trainer.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// stateResult reports a session's state in the shape of a processed frame.
func stateResult(snap trainer.Snapshot) trainer.FrameResult {
	return trainer.FrameResult{
		Exercise: snap.State.Kind,
		Phase:    snap.State.Phase,
		RepCount: snap.State.Reps,
		Feedback: []string{},
	}
}
