package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(repo Repository) chi.Router {
	h := NewHandler(repo, nil)
	r := chi.NewRouter()
	r.Post("/api/leads", h.CreateLead)
	r.Get("/admin/leads", h.ListLeads)
	r.Get("/admin/leads/{leadID}", h.GetLead)
	r.Patch("/admin/leads/{leadID}/status", h.UpdateStatus)
	return r
}

func TestCreateLead(t *testing.T) {
	r := newTestRouter(NewInMemoryRepository())

	body, _ := json.Marshal(CreateLeadRequest{
		Name:    "Jean Dupont",
		Email:   "jean.dupont@example.fr",
		Subject: "Question raccordement",
		Message: "Bonjour, quel est le délai moyen ?",
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createLeadResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success || resp.ID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	r := newTestRouter(NewInMemoryRepository())

	cases := []struct {
		name string
		req  CreateLeadRequest
	}{
		{"missing name", CreateLeadRequest{Email: "a@b.fr", Message: "hello"}},
		{"missing contact", CreateLeadRequest{Name: "Jean", Message: "hello"}},
		{"missing message", CreateLeadRequest{Name: "Jean", Email: "a@b.fr"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", bytes.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListLeadsFilter(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	first, _ := repo.Create(ctx, &CreateLeadRequest{Name: "Jean", Email: "jean@example.fr", Message: "a"})
	_, _ = repo.Create(ctx, &CreateLeadRequest{Name: "Marie", Email: "marie@example.fr", Message: "b"})
	_, _ = repo.UpdateStatus(ctx, first.ID, LeadContacted)

	r := newTestRouter(repo)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads?status=contacted", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ListLeadsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Leads[0].ID != first.ID {
		t.Fatalf("filter mismatch: %+v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/leads?q=marie", nil))
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Leads[0].Name != "Marie" {
		t.Fatalf("search mismatch: %+v", resp)
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, _ := repo.Create(context.Background(), &CreateLeadRequest{Name: "Jean", Email: "jean@example.fr", Message: "a"})
	r := newTestRouter(repo)

	body := []byte(`{"status":"closed"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/leads/"+lead.ID+"/status", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Lead
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != LeadClosed {
		t.Fatalf("status = %s", got.Status)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/leads/"+lead.ID+"/status", bytes.NewReader([]byte(`{"status":"bogus"}`))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status should 400, got %d", rec.Code)
	}
}
