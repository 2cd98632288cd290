package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// Signer implements ports.Signer with a deterministic stand-in signature.
// It exists for embedded usage and tests; real deployments inject a
// signer backed by actual key material.
type Signer struct {
	Pubkey string
	// Err, when set, makes every Sign call fail.
	Err error
}

// NewSigner creates a signer for the given identity.
func NewSigner(pubkey string) *Signer {
	return &Signer{Pubkey: pubkey}
}

// PublicKey returns the configured identity.
func (s *Signer) PublicKey() string {
	return s.Pubkey
}

// Sign stamps the event with its content hash in place of a signature.
func (s *Signer) Sign(_ context.Context, ev *domain.Event) (*domain.SignedEvent, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(payload)
	id := hex.EncodeToString(sum[:])
	return &domain.SignedEvent{
		Event:  *ev,
		ID:     id,
		PubKey: s.Pubkey,
		Sig:    "memory:" + id,
	}, nil
}

// Publisher implements ports.Publisher by recording events. The number
// of accepting destinations is configurable so tests can exercise the
// zero-acceptance failure path.
type Publisher struct {
	mu     sync.Mutex
	events []*domain.SignedEvent

	// Accepts is how many destinations report acceptance (default 1).
	Accepts int
	// Err, when set, makes every Publish call fail.
	Err error
}

// NewPublisher creates a publisher that accepts on one destination.
func NewPublisher() *Publisher {
	return &Publisher{Accepts: 1}
}

// Publish records the event and reports the configured acceptance count.
func (p *Publisher) Publish(_ context.Context, ev *domain.SignedEvent) (int, error) {
	if p.Err != nil {
		return 0, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Accepts > 0 {
		p.events = append(p.events, ev)
	}
	return p.Accepts, nil
}

// Events returns every accepted event so far.
func (p *Publisher) Events() []*domain.SignedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.SignedEvent, len(p.events))
	copy(out, p.events)
	return out
}
