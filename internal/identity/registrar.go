package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/observability"
)

// MinCommitmentAge is the mandatory wait between commit and reveal.
// Revealing earlier fails with ErrTooEarly, a retryable condition.
const MinCommitmentAge = 60 * time.Second

// RegistrarState is the client-side registration step.
type RegistrarState string

// Registration states. Transitions: idle -> committed -> registered.
const (
	StateIdle       RegistrarState = "idle"
	StateCommitted  RegistrarState = "committed"
	StateRegistered RegistrarState = "registered"
)

// Registrar errors.
var (
	// ErrTooEarly is returned when reveal is attempted before
	// MinCommitmentAge has elapsed. The caller retries the same step.
	ErrTooEarly = errors.New("commitment too young")

	// ErrNoCommitment is returned when reveal is attempted with no
	// commitment outstanding.
	ErrNoCommitment = errors.New("no commitment outstanding")

	// ErrCommitmentPending is returned when a new commit is attempted
	// while an earlier one awaits reveal.
	ErrCommitmentPending = errors.New("commitment already pending")

	// ErrInvalidAddress is returned for malformed owner or resolver
	// addresses. Rejected before any network call.
	ErrInvalidAddress = errors.New("invalid address")
)

// Controller submits registration steps to the registrar contract.
// Failed submissions must be surfaced, never silently retried:
// writes are re-invoked explicitly by the caller.
type Controller interface {
	// SubmitCommitment sends the commitment digest on-chain.
	SubmitCommitment(ctx context.Context, commitment common.Hash) error

	// Register reveals the commitment preimage and claims the name.
	Register(ctx context.Context, label string, owner common.Address, durationSeconds uint64, secret [32]byte, resolver common.Address) error
}

// Registrar runs the commit-reveal state machine for one user session.
// A failed step leaves the state unchanged so the caller can retry it.
type Registrar struct {
	controller Controller
	now        func() time.Time
	logger     zerolog.Logger

	mu             sync.Mutex
	state          RegistrarState
	commitInFlight bool
	commitment     *domain.RegistrationCommitment
	activeName     string
	listeners      []func(name string)
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) RegistrarOption {
	return func(r *Registrar) {
		r.now = now
	}
}

// NewRegistrar creates a registrar in the idle state.
func NewRegistrar(controller Controller, logger zerolog.Logger, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		controller: controller,
		now:        time.Now,
		logger:     logger.With().Str("component", "registrar").Logger(),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current registration step.
func (r *Registrar) State() RegistrarState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ActiveName returns the registered name, empty until registration
// completes.
func (r *Registrar) ActiveName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeName
}

// OnRegistered subscribes fn to successful registrations. Listeners
// fire synchronously so dependent state can refresh before the call
// returns.
func (r *Registrar) OnRegistered(fn func(name string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Commit validates inputs, submits a commitment and moves to the
// committed state. Validation failures are rejected before any network
// call; a failed submission leaves the registrar idle for retry.
func (r *Registrar) Commit(ctx context.Context, label, owner string, durationSeconds uint64, resolver string) (*domain.RegistrationCommitment, error) {
	normalized := NormalizeLabel(label)
	if err := ValidateLabel(normalized); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("%w: owner %q", ErrInvalidAddress, owner)
	}
	if !common.IsHexAddress(resolver) {
		return nil, fmt.Errorf("%w: resolver %q", ErrInvalidAddress, resolver)
	}

	// The guard spans the submission: a second Commit racing the
	// network call is rejected rather than silently overwriting the
	// first commitment's secret.
	r.mu.Lock()
	if r.state == StateCommitted || r.commitInFlight {
		r.mu.Unlock()
		return nil, ErrCommitmentPending
	}
	r.commitInFlight = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.commitInFlight = false
		r.mu.Unlock()
	}()

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	ownerAddr := common.HexToAddress(owner)
	resolverAddr := common.HexToAddress(resolver)
	hash := commitmentHash(normalized, ownerAddr, durationSeconds, secret, resolverAddr)

	if err := r.controller.SubmitCommitment(ctx, hash); err != nil {
		return nil, fmt.Errorf("submit commitment: %w", err)
	}

	c := &domain.RegistrationCommitment{
		Label:           normalized,
		Owner:           ownerAddr.Hex(),
		DurationSeconds: durationSeconds,
		Secret:          secret,
		Resolver:        resolverAddr.Hex(),
		CommitmentHash:  hash.Hex(),
		CreatedAtMs:     r.now().UnixMilli(),
	}

	r.mu.Lock()
	r.state = StateCommitted
	r.commitment = c
	r.mu.Unlock()

	observability.RecordCommitmentSubmitted()
	r.logger.Info().Str("label", normalized).Str("commitment", c.CommitmentHash).Msg("commitment submitted")

	copy := *c
	return &copy, nil
}

// Register reveals the pending commitment and claims the name. Only
// permitted once MinCommitmentAge has elapsed since the commit; earlier
// attempts fail with ErrTooEarly and the remaining wait. On success the
// commitment is cleared, the name becomes the active identity and
// registered listeners fire.
func (r *Registrar) Register(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state != StateCommitted || r.commitment == nil {
		r.mu.Unlock()
		return "", ErrNoCommitment
	}
	c := *r.commitment
	r.mu.Unlock()

	age := r.now().Sub(time.UnixMilli(c.CreatedAtMs))
	if age < MinCommitmentAge {
		remaining := (MinCommitmentAge - age).Round(time.Second)
		return "", fmt.Errorf("%w: retry in %s", ErrTooEarly, remaining)
	}

	err := r.controller.Register(ctx,
		c.Label,
		common.HexToAddress(c.Owner),
		c.DurationSeconds,
		c.Secret,
		common.HexToAddress(c.Resolver),
	)
	if err != nil {
		return "", fmt.Errorf("register %q: %w", c.Label, err)
	}

	name := c.Label + NameSuffix

	r.mu.Lock()
	r.state = StateRegistered
	r.commitment = nil
	r.activeName = name
	listeners := make([]func(string), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	observability.RecordNameRegistered()
	r.logger.Info().Str("name", name).Msg("name registered")

	for _, fn := range listeners {
		fn(name)
	}

	return name, nil
}
