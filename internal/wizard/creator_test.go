package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/jmercadier/raccordement-platform/internal/requests"
)

type failingNotifier struct {
	calls int
}

func (f *failingNotifier) RequestConfirmation(ctx context.Context, req *requests.ServiceRequest) error {
	f.calls++
	return errors.New("smtp down")
}

func TestRepositoryCreatorRoundTrip(t *testing.T) {
	repo := requests.NewInMemoryRepository()
	creator := NewRepositoryCreator(repo, nil, nil)

	snap, errs := ValidateAll(validDraft())
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	result, err := creator.CreateRequest(context.Background(), snap)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if !result.Success || result.ReferenceNumber == "" {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored, err := repo.GetByReference(context.Background(), result.ReferenceNumber)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if stored.FirstName != "Jean" || stored.RequestCategory != "new-connection" {
		t.Fatalf("snapshot fields not persisted: %+v", stored)
	}
	if stored.PaymentStatus != requests.PaymentPending {
		t.Fatalf("new request should be pending payment, got %s", stored.PaymentStatus)
	}
}

func TestCreateRequestSurvivesNotifierFailure(t *testing.T) {
	repo := requests.NewInMemoryRepository()
	notifier := &failingNotifier{}
	creator := NewRepositoryCreator(repo, notifier, nil)

	snap, errs := ValidateAll(validDraft())
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	result, err := creator.CreateRequest(context.Background(), snap)
	if err != nil {
		t.Fatalf("notifier failure must not fail the submission: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if notifier.calls != 1 {
		t.Fatalf("notifier should have been attempted once, got %d", notifier.calls)
	}
}
