package ports

import (
	"context"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// Signer turns an unsigned event into a signed one. Key management and
// the signature scheme are entirely external.
type Signer interface {
	// PublicKey returns the current identity, or "" when signed out.
	PublicKey() string

	Sign(ctx context.Context, ev *domain.Event) (*domain.SignedEvent, error)
}

// Publisher delivers a signed event to one or more destinations and
// reports how many accepted it. Zero acceptances is a failed publish.
type Publisher interface {
	Publish(ctx context.Context, ev *domain.SignedEvent) (int, error)
}
