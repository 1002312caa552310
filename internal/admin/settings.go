package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// Site setting keys read by the public frontend.
const (
	SettingAnimationsEnabled  = "animations_enabled"
	SettingMaintenanceMode    = "maintenance_mode"
	SettingWizardEnabled      = "wizard_enabled"
	SettingPaymentsEnabled    = "payments_enabled"
	SettingContactBannerText  = "contact_banner_text"
	SettingSupportPhoneNumber = "support_phone_number"
)

// settingDefaults backs keys that have never been written.
var settingDefaults = map[string]string{
	SettingAnimationsEnabled: "true",
	SettingMaintenanceMode:   "false",
	SettingWizardEnabled:     "true",
	SettingPaymentsEnabled:   "true",
}

// SettingsStore is a key-value store for site toggles and small bits of
// editable copy.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore creates a settings store.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, falling back to the default when the
// key was never saved.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key)
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return settingDefaults[key], nil
	}
	if err != nil {
		return "", fmt.Errorf("admin: load setting %s: %w", key, err)
	}
	return value, nil
}

// GetBool reads a toggle. Unknown or unparsable values report false.
func (s *SettingsStore) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nil
	}
	return v, nil
}

// Set upserts a setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("admin: save setting %s: %w", key, err)
	}
	return nil
}

// All returns every stored setting merged over the defaults.
func (s *SettingsStore) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(settingDefaults))
	for k, v := range settingDefaults {
		out[k] = v
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM site_settings`)
	if err != nil {
		return nil, fmt.Errorf("admin: list settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("admin: scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SettingsHandler exposes the site settings endpoints.
type SettingsHandler struct {
	store  *SettingsStore
	logger *logging.Logger
}

// NewSettingsHandler creates the handler.
func NewSettingsHandler(store *SettingsStore, logger *logging.Logger) *SettingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsHandler{store: store, logger: logger}
}

// List handles GET /admin/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.All(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", "error", err)
		http.Error(w, "failed to list settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// Get handles GET /admin/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.logger.Error("failed to load setting", "error", err, "key", key)
		http.Error(w, "failed to load setting", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

// Update handles PUT /admin/settings/{key}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.store.Set(r.Context(), key, payload.Value); err != nil {
		h.logger.Error("failed to save setting", "error", err, "key", key)
		http.Error(w, "failed to save setting", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": payload.Value})
}

// PublicSettings handles GET /api/settings, the read-only subset the
// frontend needs before rendering.
func (h *SettingsHandler) PublicSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	animations, err := h.store.GetBool(ctx, SettingAnimationsEnabled)
	if err != nil {
		h.logger.Error("failed to load settings", "error", err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	maintenance, _ := h.store.GetBool(ctx, SettingMaintenanceMode)
	wizard, _ := h.store.GetBool(ctx, SettingWizardEnabled)
	payments, _ := h.store.GetBool(ctx, SettingPaymentsEnabled)

	writeJSON(w, http.StatusOK, map[string]bool{
		"animationsEnabled": animations,
		"maintenanceMode":   maintenance,
		"wizardEnabled":     wizard,
		"paymentsEnabled":   payments,
	})
}
