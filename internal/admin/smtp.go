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

	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// maskedPassword replaces the stored SMTP password in GET responses.
const maskedPassword = "********"

// SMTPSettings holds the outbound mail configuration edited from the
// back office. A single row with id = 1 is kept in Postgres.
type SMTPSettings struct {
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	FromEmail string    `json:"fromEmail"`
	FromName  string    `json:"fromName"`
	UseTLS    bool      `json:"useTLS"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SMTPStore persists the SMTP configuration.
type SMTPStore struct {
	db *sql.DB
}

// NewSMTPStore creates an SMTP settings store.
func NewSMTPStore(db *sql.DB) *SMTPStore {
	return &SMTPStore{db: db}
}

// Get returns the current settings, or zero values when none are saved yet.
func (s *SMTPStore) Get(ctx context.Context) (*SMTPSettings, error) {
	var cfg SMTPSettings
	row := s.db.QueryRowContext(ctx,
		`SELECT host, port, username, password, from_email, from_name, use_tls, updated_at FROM smtp_settings WHERE id = 1`)
	err := row.Scan(&cfg.Host, &cfg.Port, &cfg.Username, &cfg.Password,
		&cfg.FromEmail, &cfg.FromName, &cfg.UseTLS, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &SMTPSettings{Port: 587, UseTLS: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("admin: load smtp settings: %w", err)
	}
	return &cfg, nil
}

// Update upserts the settings. An empty or masked password keeps the
// previously stored one, so the back office can resubmit the form
// without re-entering the secret.
func (s *SMTPStore) Update(ctx context.Context, cfg *SMTPSettings) (*SMTPSettings, error) {
	if cfg.Password == "" || cfg.Password == maskedPassword {
		current, err := s.Get(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Password = current.Password
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO smtp_settings (id, host, port, username, password, from_email, from_name, use_tls, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			host = EXCLUDED.host, port = EXCLUDED.port, username = EXCLUDED.username,
			password = EXCLUDED.password, from_email = EXCLUDED.from_email,
			from_name = EXCLUDED.from_name, use_tls = EXCLUDED.use_tls, updated_at = NOW()
		RETURNING updated_at`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.FromEmail, cfg.FromName, cfg.UseTLS)
	if err := row.Scan(&cfg.UpdatedAt); err != nil {
		return nil, fmt.Errorf("admin: save smtp settings: %w", err)
	}
	return cfg, nil
}

// SMTPHandler exposes the SMTP configuration endpoints.
type SMTPHandler struct {
	store  *SMTPStore
	logger *logging.Logger
}

// NewSMTPHandler creates the handler.
func NewSMTPHandler(store *SMTPStore, logger *logging.Logger) *SMTPHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SMTPHandler{store: store, logger: logger}
}

// Get handles GET /admin/settings/smtp. The password never leaves the
// server, a mask is returned when one is stored.
func (h *SMTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to load smtp settings", "error", err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if cfg.Password != "" {
		cfg.Password = maskedPassword
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Update handles PUT /admin/settings/smtp.
func (h *SMTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cfg SMTPSettings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port <= 0 {
		http.Error(w, "host and port are required", http.StatusBadRequest)
		return
	}

	saved, err := h.store.Update(r.Context(), &cfg)
	if err != nil {
		h.logger.Error("failed to save smtp settings", "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	if saved.Password != "" {
		saved.Password = maskedPassword
	}
	writeJSON(w, http.StatusOK, saved)
}
