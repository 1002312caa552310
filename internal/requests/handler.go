package requests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// ConfirmationNotifier sends the post-creation confirmation email. Failures
// are logged, never surfaced: the request itself already succeeded.
type ConfirmationNotifier interface {
	RequestConfirmation(ctx context.Context, req *ServiceRequest) error
}

// Handler handles HTTP requests for service requests
type Handler struct {
	repo     Repository
	notifier ConfirmationNotifier
	metrics  *metrics.RequestMetrics
	logger   *logging.Logger
}

// NewHandler creates a new service request handler
func NewHandler(repo Repository, notifier ConfirmationNotifier, m *metrics.RequestMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// CreateResponse is the wire response for request creation.
type CreateResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
}

// Create handles POST /api/requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateServiceRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeJSON(w, http.StatusBadRequest, CreateResponse{Success: false, Message: "Requête invalide."})
		return
	}

	req, err := h.repo.Create(r.Context(), &in)
	if err != nil {
		h.logger.Error("failed to create service request", "error", err)
		h.metrics.ObserveCreate("error")
		writeJSON(w, http.StatusBadRequest, CreateResponse{Success: false, Message: err.Error()})
		return
	}

	h.logger.Info("service request created", "reference", req.Reference, "category", req.RequestCategory)
	h.metrics.ObserveCreate("success")

	if h.notifier != nil {
		if err := h.notifier.RequestConfirmation(r.Context(), req); err != nil {
			h.logger.Warn("confirmation email failed", "error", err, "reference", req.Reference)
		}
	}

	writeJSON(w, http.StatusCreated, CreateResponse{
		Success:         true,
		Message:         "Votre demande a bien été enregistrée.",
		ReferenceNumber: req.Reference,
	})
}

// GetByReference handles GET /api/requests/{reference}. The payment page uses
// it to populate its summary and to pre-check the payment status.
func (h *Handler) GetByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		http.Error(w, "missing reference", http.StatusBadRequest)
		return
	}

	req, err := h.repo.GetByReference(r.Context(), reference)
	if err != nil {
		if err == ErrRequestNotFound {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		h.logger.Error("request lookup failed", "error", err, "reference", reference)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// ListResponse is the response for the admin request listing.
type ListResponse struct {
	Requests []*ServiceRequest `json:"requests"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// List handles GET /admin/requests with search, status filters and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
		Search: r.URL.Query().Get("q"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if status := RequestStatus(r.URL.Query().Get("status")); status != "" {
		if !status.IsValid() {
			http.Error(w, "invalid status filter", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if payment := PaymentStatus(r.URL.Query().Get("payment_status")); payment != "" {
		if !payment.IsValid() {
			http.Error(w, "invalid payment status filter", http.StatusBadRequest)
			return
		}
		filter.PaymentStatus = payment
	}

	reqs, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list requests", "error", err)
		http.Error(w, "failed to list requests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Requests: reqs,
		Total:    total,
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

type updateStatusRequest struct {
	Status RequestStatus `json:"status"`
}

// UpdateStatus handles PATCH /admin/requests/{reference}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		http.Error(w, "missing reference", http.StatusBadRequest)
		return
	}

	var body updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if !body.Status.IsValid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	req, err := h.repo.UpdateStatus(r.Context(), reference, body.Status)
	if err != nil {
		if err == ErrRequestNotFound {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		h.logger.Error("status update failed", "error", err, "reference", reference)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("request status updated", "reference", req.Reference, "status", req.Status)
	writeJSON(w, http.StatusOK, req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
