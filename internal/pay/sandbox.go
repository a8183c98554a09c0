package pay

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is an in-memory Provider for development and tests. Intents start
// in requires_action and stay there until a test (or the dev webhook
// endpoint) drives them forward with Complete, Decline or Cancel.
type Sandbox struct {
	mu      sync.Mutex
	intents map[string]*sandboxIntent
}

type sandboxIntent struct {
	amountCents int64
	currency    string
	metadata    map[string]string
	status      IntentStatus
}

// NewSandbox returns an empty sandbox provider.
func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]*sandboxIntent)}
}

var _ Provider = (*Sandbox)(nil)

// CreateIntent issues a fresh intent ID in the provider's "pi_" format.
func (s *Sandbox) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	if amountCents < 0 {
		return Intent{}, &ProviderError{Code: "invalid_amount", Message: "amount must not be negative"}
	}
	id := "pi_" + uuid.NewString()
	s.mu.Lock()
	s.intents[id] = &sandboxIntent{
		amountCents: amountCents,
		currency:    currency,
		metadata:    metadata,
		status:      StatusRequiresAction,
	}
	s.mu.Unlock()
	return Intent{ID: id, ClientSecret: id + "_secret_" + uuid.NewString()}, nil
}

// IntentStatus reports the stored status of an intent.
func (s *Sandbox) IntentStatus(_ context.Context, intentID string) (IntentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[intentID]
	if !ok {
		return "", &ProviderError{Code: "resource_missing", Message: "no such intent: " + intentID}
	}
	return in.status, nil
}

// Complete marks an intent as succeeded, simulating the customer finishing
// the payment flow.
func (s *Sandbox) Complete(intentID string) bool { return s.set(intentID, StatusSucceeded) }

// Decline marks an intent as requiring a new payment method, simulating a
// declined charge.
func (s *Sandbox) Decline(intentID string) bool { return s.set(intentID, StatusRequiresPaymentMethod) }

// Cancel marks an intent as canceled.
func (s *Sandbox) Cancel(intentID string) bool { return s.set(intentID, StatusCanceled) }

func (s *Sandbox) set(intentID string, to IntentStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[intentID]
	if !ok {
		return false
	}
	// succeeded and canceled are terminal on the provider side as well.
	if in.status == StatusSucceeded || in.status == StatusCanceled {
		return false
	}
	in.status = to
	return true
}
