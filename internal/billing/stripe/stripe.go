// Package stripe adapts the Stripe SDK to the billing service.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	stripego "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/apdq/deliver-backend/internal/billing"
)

type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) Verify(payload []byte, signature string) (billing.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if json.Valid(payload) {
			return billing.Event{}, fmt.Errorf("%w: %v", billing.ErrInvalidSignature, err)
		}
		return billing.Event{}, fmt.Errorf("%w: %v", billing.ErrInvalidPayload, err)
	}

	out := billing.Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}
	switch out.Type {
	case billing.EventCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return billing.Event{}, fmt.Errorf("%w: %v", billing.ErrInvalidPayload, err)
		}
		cs := &billing.CheckoutSession{ID: s.ID}
		if s.CustomerDetails != nil {
			cs.Email = s.CustomerDetails.Email
		}
		if s.Customer != nil {
			cs.CustomerID = s.Customer.ID
		}
		out.Checkout = cs
	case billing.EventSubscriptionDeleted, billing.EventSubscriptionUpdated:
		var sub stripego.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return billing.Event{}, fmt.Errorf("%w: %v", billing.ErrInvalidPayload, err)
		}
		s := &billing.Subscription{Status: string(sub.Status)}
		if sub.Customer != nil {
			s.CustomerID = sub.Customer.ID
		}
		out.Subscription = s
	}
	return out, nil
}

type Portal struct {
	client portalsession.Client
}

func NewPortal(apiKey string) *Portal {
	return &Portal{client: portalsession.Client{
		B:   stripego.GetBackend(stripego.APIBackend),
		Key: apiKey,
	}}
}

func (p *Portal) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripego.BillingPortalSessionParams{
		Customer:  stripego.String(customerID),
		ReturnURL: stripego.String(returnURL),
	}
	params.Context = ctx
	s, err := p.client.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return s.URL, nil
}
