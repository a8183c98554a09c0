// Package pay abstracts the external payment provider. The engine only ever
// asks the provider two things: create an intent for an amount, and report
// the current status of an intent. All money movement happens on the
// provider's side; the engine reconciles afterwards.
package pay

import (
	"context"
	"fmt"
)

// IntentStatus is the provider-side lifecycle of a payment intent.
type IntentStatus string

const (
	// StatusRequiresAction means the customer has not finished the flow yet.
	StatusRequiresAction IntentStatus = "requires_action"
	// StatusProcessing means the provider is settling the charge.
	StatusProcessing IntentStatus = "processing"
	// StatusSucceeded means the money is captured.
	StatusSucceeded IntentStatus = "succeeded"
	// StatusCanceled means the intent was canceled before capture.
	StatusCanceled IntentStatus = "canceled"
	// StatusRequiresPaymentMethod means the attempted charge was declined.
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
)

// Intent is the provider's handle for one payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
}

// Provider is implemented by payment backends. Calls may block on the
// network; callers bound them with a context deadline and never hold a
// database transaction open across them.
type Provider interface {
	// CreateIntent registers a new payment attempt for the given amount in
	// minor units of currency.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	// IntentStatus reports the current lifecycle state of an intent.
	IntentStatus(ctx context.Context, intentID string) (IntentStatus, error)
}

// ProviderError wraps a failure reported by the payment backend, keeping the
// provider's own code for the API response.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s (%s)", e.Message, e.Code)
}
