// Package billing keeps garage activation in step with Stripe subscriptions
// and opens the customer billing portal.
package billing

import (
	"context"
	"errors"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/core/events"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventSubscriptionUpdated = "customer.subscription.updated"

	StatusCompleted         = "completed"
	StatusSubscriptionEnded = "subscription_ended"
)

var (
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Event is the part of a provider notification the service acts on.
type Event struct {
	ID           string
	Type         string
	Checkout     *CheckoutSession
	Subscription *Subscription
}

type CheckoutSession struct {
	ID         string
	CustomerID string
	Email      string
}

type Subscription struct {
	CustomerID string
	Status     string
}

// Verifier authenticates a raw webhook body against its signature header.
// Failures wrap ErrInvalidPayload or ErrInvalidSignature.
type Verifier interface {
	Verify(payload []byte, signature string) (Event, error)
}

type PortalClient interface {
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type RepositoryAPI interface {
	FindGarageByID(ctx context.Context, id int64) (*accountDatamodel.Garage, error)
	FindInactiveByEmail(ctx context.Context, email string) (*accountDatamodel.Garage, error)
	Activate(ctx context.Context, garageID int64, sessionID, customerID string) error
	// SetStatusByCustomer returns the ids of the garages it touched.
	SetStatusByCustomer(ctx context.Context, customerID string, active bool, paymentStatus string) ([]int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

func subscriptionActive(status string) bool {
	return status == "active" || status == "trialing"
}
