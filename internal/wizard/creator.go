package wizard

import (
	"context"

	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// RepositoryCreator submits snapshots to the service request store in-process
// and fires the confirmation email the same way the public create endpoint
// does.
type RepositoryCreator struct {
	repo     requests.Repository
	notifier requests.ConfirmationNotifier
	logger   *logging.Logger
}

// NewRepositoryCreator builds a creator over the request repository. notifier
// may be nil.
func NewRepositoryCreator(repo requests.Repository, notifier requests.ConfirmationNotifier, logger *logging.Logger) *RepositoryCreator {
	if repo == nil {
		panic("wizard: requests repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RepositoryCreator{repo: repo, notifier: notifier, logger: logger}
}

// CreateRequest implements RequestCreator.
func (c *RepositoryCreator) CreateRequest(ctx context.Context, snap *Snapshot) (*SubmissionResult, error) {
	req, err := c.repo.Create(ctx, snap.CreateInput())
	if err != nil {
		return nil, err
	}
	if c.notifier != nil {
		// Best effort: the request is already stored.
		if err := c.notifier.RequestConfirmation(ctx, req); err != nil {
			c.logger.Warn("confirmation email failed", "error", err, "reference", req.Reference)
		}
	}
	return &SubmissionResult{
		Success:         true,
		Message:         "Votre demande a bien été enregistrée.",
		ReferenceNumber: req.Reference,
	}, nil
}
