package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/store"
)

var (
	errNoDefaultSchema = errors.New("no default schema configured")
	errNoStore         = errors.New("submission store not configured")
	errFieldNotFound   = errors.New("field not found")
)

type evaluateRequest struct {
	Schema json.RawMessage `json:"schema,omitempty"`
	Values schema.Values   `json:"values"`
}

type evaluateResponse struct {
	engine.EvaluationResult
	Options map[string][]schema.Option `json:"options"`
}

type decodeRequest struct {
	Param string `json:"param"`
}

type decodeResponse struct {
	Schema schema.Schema  `json:"schema"`
	Issues []schema.Issue `json:"issues"`
}

type sessionResponse struct {
	ID    string     `json:"id"`
	State form.State `json:"state"`
}

type changeRequest struct {
	Value any `json:"value"`
}

type submitResponse struct {
	Outcome engine.Outcome `json:"outcome"`
	Error   string         `json:"error,omitempty"`
	State   form.State     `json:"state"`
}

type submissionsResponse struct {
	Submissions []store.Submission `json:"submissions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.count(),
	})
}

// resolveSchema decodes an inline schema or falls back to the default one.
func (s *Server) resolveSchema(raw json.RawMessage) (schema.Schema, int, error) {
	if len(raw) > 0 && string(raw) != "null" {
		sc, err := schema.Decode(raw)
		if err != nil {
			return schema.Schema{}, http.StatusBadRequest, err
		}
		return sc, 0, nil
	}
	if s.schemas == nil {
		return schema.Schema{}, http.StatusBadRequest, errNoDefaultSchema
	}
	return s.schemas.Schema(), 0, nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	sc, status, err := s.resolveSchema(req.Schema)
	if err != nil {
		writeError(w, status, err)
		return
	}

	values := req.Values.Clone()
	result := s.engine.Evaluate(sc, values)
	writeJSON(w, http.StatusOK, evaluateResponse{
		EvaluationResult: result,
		Options:          s.engine.OptionsFor(sc, values, result.VisibleFieldIDs),
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var (
		sc  schema.Schema
		err error
	)
	if r.URL.Query().Has(schema.ParamName) {
		sc, err = schema.DecodeQuery(r.URL.Query())
	} else {
		var req decodeRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
		sc, err = schema.DecodeParam(req.Param)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	issues := schema.Lint(sc)
	if issues == nil {
		issues = []schema.Issue{}
	}
	writeJSON(w, http.StatusOK, decodeResponse{Schema: sc, Issues: issues})
}

func (s *Server) handleDefaultSchema(w http.ResponseWriter, r *http.Request) {
	if s.schemas == nil {
		writeError(w, http.StatusNotFound, errNoDefaultSchema)
		return
	}
	writeJSON(w, http.StatusOK, s.schemas.Schema())
}

// Sessions keep the schema they were created with; a later reload of the
// default schema only affects new sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	sc, status, err := s.resolveSchema(req.Schema)
	if err != nil {
		writeError(w, status, err)
		return
	}

	session := form.NewSession(sc,
		form.WithEngine(s.engine),
		form.WithInitialValues(req.Values),
		form.WithSubmitter(s.submitterFor(sc)),
		form.WithLogger(s.logger),
	)
	id, err := s.sessions.add(session)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Debug().Str("session", id).Str("schema", sc.Title).Msg("session created")

	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, State: session.State()})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *form.Session, bool) {
	id := chi.URLParam(r, "id")
	session, err := s.sessions.get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return id, nil, false
	}
	return id, session, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.State()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangeField(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	fieldID := chi.URLParam(r, "field")
	sc := session.Schema()
	if _, found := sc.Field(fieldID); !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errFieldNotFound, fieldID))
		return
	}

	var req changeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.Change(fieldID, req.Value)})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, session, ok := s.session(w, r)
	if !ok {
		return
	}

	outcome, err := session.Submit(r.Context())
	if errors.Is(err, form.ErrSubmissionInFlight) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := submitResponse{Outcome: outcome, State: session.State()}
	status := http.StatusOK
	switch {
	case len(outcome.Errors) > 0:
		status = http.StatusUnprocessableEntity
	case outcome.Err != nil:
		status = http.StatusBadGateway
		resp.Error = outcome.Err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: session.Reset()})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errNoStore)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	subs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list submissions")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	writeJSON(w, http.StatusOK, submissionsResponse{Submissions: subs})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errNoStore)
		return
	}
	sub, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, sub)
	}
}
