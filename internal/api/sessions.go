package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/salescribe/salescribe/internal/conversation"
	"github.com/salescribe/salescribe/internal/fields"
	"github.com/salescribe/salescribe/internal/record"
	"github.com/salescribe/salescribe/internal/scoring"
	"github.com/salescribe/salescribe/internal/summary"
)

// SessionView is the API shape of one session. Record is the merged view the
// user is working toward; MissingFields lists what the current edit stage
// still needs.
type SessionView struct {
	ID             string                   `json:"id"`
	Stage          string                   `json:"stage"`
	Messages       []conversation.Message   `json:"messages"`
	Record         *record.CallData         `json:"record"`
	Verified       map[record.Category]bool `json:"verified"`
	QuestionsAsked []string                 `json:"questions_asked"`
	MissingFields  []string                 `json:"missing_fields,omitempty"`
}

// viewOf snapshots the state. The view must not alias the live maps or
// slices: it is JSON-encoded after the session lock is released, and a
// concurrent action on the same session mutates them.
func viewOf(st *conversation.State) SessionView {
	verified := make(map[record.Category]bool, len(st.Verified))
	for cat, v := range st.Verified {
		verified[cat] = v
	}
	view := SessionView{
		ID:             st.ID,
		Stage:          string(st.Stage),
		Messages:       append([]conversation.Message(nil), st.Messages...),
		Record:         st.Combined(),
		Verified:       verified,
		QuestionsAsked: append([]string(nil), st.QuestionsAsked...),
	}
	if cat := conversation.StageCategory(st.Stage); cat != "" {
		view.MissingFields = fields.Missing(cat, view.Record)
	}
	return view
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	var view SessionView
	sess.Do(func(st *conversation.State) {
		s.ctrl.Render(st)
		view = viewOf(st)
	})
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var view SessionView
	sess.Do(func(st *conversation.State) {
		view = viewOf(st)
	})
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.sessions.Get(id); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var act conversation.Action
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid action: %v", err))
		return
	}

	var (
		view     SessionView
		applyErr error
	)
	sess.Do(func(st *conversation.State) {
		applyErr = s.ctrl.Apply(r.Context(), st, act)
		view = viewOf(st)
	})
	if applyErr != nil {
		writeError(w, http.StatusBadRequest, applyErr.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) sessionSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var text string
	sess.Do(func(st *conversation.State) {
		text = summary.Render(st.Combined())
	})
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}

type scoreRequest struct {
	Transcript string `json:"transcript"`
}

func (s *Server) scoreTranscript(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil {
		writeError(w, http.StatusServiceUnavailable, "scoring not configured")
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	card, err := s.scorer.Score(r.Context(), req.Transcript)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scorecard": card,
		"text":      scoring.Render(card),
	})
}
