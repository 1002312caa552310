package wizard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// Handler exposes the wizard session flow over HTTP.
type Handler struct {
	store   *SessionStore
	creator RequestCreator
	delay   time.Duration
	metrics *metrics.WizardMetrics
	logger  *logging.Logger
}

// NewHandler creates a wizard handler.
func NewHandler(store *SessionStore, creator RequestCreator, delay time.Duration, m *metrics.WizardMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:   store,
		creator: creator,
		delay:   delay,
		metrics: m,
		logger:  logger,
	}
}

type sessionView struct {
	SessionID     string      `json:"sessionId"`
	State         State       `json:"state"`
	Draft         *Draft      `json:"draft"`
	Snapshot      *Snapshot   `json:"snapshot,omitempty"`
	VisibleGroups []FieldGroup `json:"visibleGroups"`
}

func newSessionView(s *Session) sessionView {
	visible := VisibleGroups(s.Draft)
	groups := make([]FieldGroup, 0, len(visible))
	for _, g := range []FieldGroup{GroupOrganization, GroupPermit, GroupBilling, GroupArchitect} {
		if visible.Has(g) {
			groups = append(groups, g)
		}
	}
	return sessionView{
		SessionID:     s.ID,
		State:         s.State,
		Draft:         s.Draft,
		Snapshot:      s.Snapshot,
		VisibleGroups: groups,
	}
}

// CreateSession handles POST /api/wizard: a fresh empty draft in editing state.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := NewSession()
	if err := h.store.Save(r.Context(), session); err != nil {
		h.logger.Error("failed to save wizard session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	h.logger.Info("wizard session created", "session_id", session.ID)
	writeJSON(w, http.StatusCreated, newSessionView(session))
}

// GetSession handles GET /api/wizard/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

// UpdateFields handles PATCH /api/wizard/{sessionID}: field-by-field draft
// mutation while editing. Unknown fields are ignored; enum domains are only
// enforced at submit.
func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if session.State != StateEditing {
		http.Error(w, "draft is read-only outside editing", http.StatusConflict)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	session.Draft.Apply(patch)
	session.UpdatedAt = time.Now().UTC()

	if err := h.store.Save(r.Context(), session); err != nil {
		h.logger.Error("failed to save wizard session", "error", err, "session_id", session.ID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

type submitFailure struct {
	State  State       `json:"state"`
	Errors FieldErrors `json:"errors"`
}

// Submit handles POST /api/wizard/{sessionID}/submit: editing → reviewing.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	machine := NewMachine(session, h.creator, h.delay, h.metrics, h.logger)
	fieldErrs, err := machine.Submit()
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if saveErr := h.store.Save(r.Context(), session); saveErr != nil {
		h.logger.Error("failed to save wizard session", "error", saveErr, "session_id", session.ID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, submitFailure{State: session.State, Errors: fieldErrs})
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

// Edit handles POST /api/wizard/{sessionID}/edit: reviewing → editing.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	machine := NewMachine(session, h.creator, h.delay, h.metrics, h.logger)
	if err := machine.Edit(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if err := h.store.Save(r.Context(), session); err != nil {
		h.logger.Error("failed to save wizard session", "error", err, "session_id", session.ID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

type confirmResponse struct {
	Success         bool   `json:"success"`
	RedirectURL     string `json:"redirectUrl,omitempty"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	Message         string `json:"message,omitempty"`
	State           State  `json:"state"`
}

// Confirm handles POST /api/wizard/{sessionID}/confirm: the remote create and
// redirect to the payment step. A failed create keeps the session reviewing
// and returns the toast message.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	machine := NewMachine(session, h.creator, h.delay, h.metrics, h.logger)
	outcome, err := machine.Confirm(r.Context())
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrSubmissionInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("wizard confirm failed", "error", err, "session_id", session.ID)
		http.Error(w, "confirm failed", http.StatusInternalServerError)
		return
	}

	if outcome.ErrorMessage != "" {
		if saveErr := h.store.Save(r.Context(), session); saveErr != nil {
			h.logger.Error("failed to save wizard session", "error", saveErr, "session_id", session.ID)
		}
		writeJSON(w, http.StatusBadGateway, confirmResponse{
			Success: false,
			Message: outcome.ErrorMessage,
			State:   session.State,
		})
		return
	}

	// The session is done; the draft is discarded with it.
	if delErr := h.store.Delete(r.Context(), session.ID); delErr != nil {
		h.logger.Warn("failed to delete wizard session", "error", delErr, "session_id", session.ID)
	}

	h.logger.Info("wizard confirmed", "session_id", session.ID, "reference", outcome.Result.ReferenceNumber)
	writeJSON(w, http.StatusOK, confirmResponse{
		Success:         true,
		RedirectURL:     outcome.RedirectURL,
		ReferenceNumber: outcome.Result.ReferenceNumber,
		State:           session.State,
	})
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return nil, false
	}
	session, err := h.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to load wizard session", "error", err, "session_id", id)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return nil, false
	}
	return session, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
