package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsStore(t *testing.T) (*SettingsStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db), mock
}

func TestSettingsGetFallsBackToDefault(t *testing.T) {
	store, mock := newSettingsStore(t)

	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingAnimationsEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	enabled, err := store.GetBool(context.Background(), SettingAnimationsEnabled)
	require.NoError(t, err)
	assert.True(t, enabled, "animations default on")
}

func TestSettingsGetStoredValueWins(t *testing.T) {
	store, mock := newSettingsStore(t)

	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingAnimationsEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("false"))

	enabled, err := store.GetBool(context.Background(), SettingAnimationsEnabled)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSettingsSetUpserts(t *testing.T) {
	store, mock := newSettingsStore(t)

	mock.ExpectExec("INSERT INTO site_settings").
		WithArgs(SettingMaintenanceMode, "true").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), SettingMaintenanceMode, "true"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsHandlerUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewSettingsHandler(NewSettingsStore(db), nil)
	r := chi.NewRouter()
	r.Put("/admin/settings/{key}", h.Update)

	mock.ExpectExec("INSERT INTO site_settings").
		WithArgs(SettingAnimationsEnabled, "false").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := []byte(`{"value":"false"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/admin/settings/animations_enabled", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "false", resp["value"])
}

func TestPublicSettingsEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewSettingsHandler(NewSettingsStore(db), nil)

	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingAnimationsEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("false"))
	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingMaintenanceMode).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingWizardEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectQuery("SELECT value FROM site_settings").
		WithArgs(SettingPaymentsEnabled).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	rec := httptest.NewRecorder()
	h.PublicSettings(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp["animationsEnabled"])
	assert.False(t, resp["maintenanceMode"])
	assert.True(t, resp["wizardEnabled"])
	assert.True(t, resp["paymentsEnabled"])
}
