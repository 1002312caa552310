package admin

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// DashboardHandler serves the back office landing page metrics.
type DashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(db *sql.DB, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{db: db, logger: logger}
}

// DashboardResponse contains the main dashboard metrics.
type DashboardResponse struct {
	Period   string         `json:"period"`
	Requests RequestMetrics `json:"requests"`
	Payments RevenueMetrics `json:"payments"`
	Leads    LeadMetrics    `json:"leads"`
	Failures FailureMetrics `json:"failures"`
}

// RequestMetrics counts service requests by lifecycle status.
type RequestMetrics struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
	New         int `json:"new"`
	InReview    int `json:"in_review"`
	Processing  int `json:"processing"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
}

// RevenueMetrics aggregates collected payments.
type RevenueMetrics struct {
	TotalCollected int     `json:"total_collected_cents"`
	ThisWeek       int     `json:"this_week_cents"`
	PaidCount      int     `json:"paid_count"`
	PendingCount   int     `json:"pending_count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// LeadMetrics counts contact-form leads.
type LeadMetrics struct {
	Total       int `json:"total"`
	NewThisWeek int `json:"new_this_week"`
	Uncontacted int `json:"uncontacted"`
}

// FailureMetrics surfaces recent payment declines.
type FailureMetrics struct {
	AttemptsThisWeek int `json:"attempts_this_week"`
}

// Overview returns the dashboard metrics.
// GET /admin/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}

	dashboard := DashboardResponse{Period: period}

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	ctx := r.Context()

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_requests`,
	).Scan(&dashboard.Requests.Total)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Requests.NewThisWeek)

	statusCounts := []struct {
		status string
		dest   *int
	}{
		{"new", &dashboard.Requests.New},
		{"in_review", &dashboard.Requests.InReview},
		{"processing", &dashboard.Requests.Processing},
		{"completed", &dashboard.Requests.Completed},
		{"cancelled", &dashboard.Requests.Cancelled},
	}
	for _, sc := range statusCounts {
		h.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM service_requests WHERE status = $1`, sc.status,
		).Scan(sc.dest)
	}

	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = 'succeeded'`,
	).Scan(&dashboard.Payments.TotalCollected)

	h.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = 'succeeded' AND created_at >= $1`, weekAgo,
	).Scan(&dashboard.Payments.ThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE payment_status = 'paid'`,
	).Scan(&dashboard.Payments.PaidCount)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE payment_status = 'pending'`,
	).Scan(&dashboard.Payments.PendingCount)

	if dashboard.Requests.Total > 0 {
		dashboard.Payments.ConversionRate = float64(dashboard.Payments.PaidCount) / float64(dashboard.Requests.Total) * 100
	}

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads`,
	).Scan(&dashboard.Leads.Total)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Leads.NewThisWeek)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads WHERE status = 'new'`,
	).Scan(&dashboard.Leads.Uncontacted)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failed_payment_attempts WHERE created_at >= $1`, weekAgo,
	).Scan(&dashboard.Failures.AttemptsThisWeek)

	writeJSON(w, http.StatusOK, dashboard)
}
