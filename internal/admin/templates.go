package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// ErrTemplateNotFound indicates the email template does not exist.
var ErrTemplateNotFound = errors.New("admin: email template not found")

// EmailTemplate is an admin-editable email body. Subject and body use
// text/template placeholders resolved at send time.
type EmailTemplate struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Template keys the platform sends out of the box.
const (
	TemplateRequestConfirmation = "request_confirmation"
	TemplatePaymentReceipt      = "payment_receipt"
	TemplateAdminNotification   = "admin_notification"
)

// TemplateStore persists email templates.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a template store over the admin database.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, key, name, subject, body, enabled, updated_at`

// GetByKey fetches a template by its stable key.
func (s *TemplateStore) GetByKey(ctx context.Context, key string) (*EmailTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE key = $1`, key)
	return scanTemplate(row)
}

// List returns all templates ordered by name.
func (s *TemplateStore) List(ctx context.Context) ([]*EmailTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("admin: list templates: %w", err)
	}
	defer rows.Close()

	var out []*EmailTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// Create inserts a new template.
func (s *TemplateStore) Create(ctx context.Context, tpl *EmailTemplate) (*EmailTemplate, error) {
	tpl.ID = uuid.New().String()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO email_templates (id, key, name, subject, body, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING updated_at`,
		tpl.ID, tpl.Key, tpl.Name, tpl.Subject, tpl.Body, tpl.Enabled)
	if err := row.Scan(&tpl.UpdatedAt); err != nil {
		return nil, fmt.Errorf("admin: create template: %w", err)
	}
	return tpl, nil
}

// Update replaces an existing template's content.
func (s *TemplateStore) Update(ctx context.Context, key string, tpl *EmailTemplate) (*EmailTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE email_templates
		SET name = $1, subject = $2, body = $3, enabled = $4, updated_at = NOW()
		WHERE key = $5
		RETURNING `+templateColumns,
		tpl.Name, tpl.Subject, tpl.Body, tpl.Enabled, key)
	return scanTemplate(row)
}

// Delete removes a template.
func (s *TemplateStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM email_templates WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("admin: delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*EmailTemplate, error) {
	var tpl EmailTemplate
	if err := row.Scan(&tpl.ID, &tpl.Key, &tpl.Name, &tpl.Subject, &tpl.Body, &tpl.Enabled, &tpl.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("admin: scan template: %w", err)
	}
	return &tpl, nil
}

// TemplateHandler exposes template CRUD to the back office.
type TemplateHandler struct {
	store  *TemplateStore
	logger *logging.Logger
}

// NewTemplateHandler creates the handler.
func NewTemplateHandler(store *TemplateStore, logger *logging.Logger) *TemplateHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TemplateHandler{store: store, logger: logger}
}

// List handles GET /admin/templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list templates", "error", err)
		http.Error(w, "failed to list templates", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// Get handles GET /admin/templates/{key}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	tpl, err := h.store.GetByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		h.logger.Error("template lookup failed", "error", err, "key", key)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// Create handles POST /admin/templates.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var tpl EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(tpl.Key) == "" || strings.TrimSpace(tpl.Subject) == "" {
		http.Error(w, "key and subject are required", http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), &tpl)
	if err != nil {
		h.logger.Error("template creation failed", "error", err, "key", tpl.Key)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /admin/templates/{key}.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var tpl EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	updated, err := h.store.Update(r.Context(), key, &tpl)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		h.logger.Error("template update failed", "error", err, "key", key)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/templates/{key}.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		h.logger.Error("template delete failed", "error", err, "key", key)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
