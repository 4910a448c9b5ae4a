// Package registry hands out explicitly owned ledger instances, one per
// logical tenant or session, addressed by opaque uuid handles. Collaborators
// hold a handle instead of sharing process-wide ledger singletons.
package registry

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/x402labs/stealth-ledger-go/pkg/ledger"
)

// ErrUnknownHandle is returned when a handle does not resolve to a ledger.
var ErrUnknownHandle = errors.New("unknown ledger handle")

// Registry owns a set of ledgers keyed by handle.
type Registry struct {
	mu      sync.RWMutex
	ledgers map[uuid.UUID]*ledger.Ledger
	opts    []ledger.Option
	logger  *zap.Logger
}

// New constructs an empty registry. The given ledger options are applied to
// every ledger the registry opens.
func New(logger *zap.Logger, opts ...ledger.Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		ledgers: make(map[uuid.UUID]*ledger.Ledger),
		opts:    opts,
		logger:  logger,
	}
}

// Open creates a fresh ledger and returns its handle.
func (r *Registry) Open() (uuid.UUID, *ledger.Ledger) {
	handle := uuid.New()
	l := ledger.New(r.opts...)

	r.mu.Lock()
	r.ledgers[handle] = l
	r.mu.Unlock()

	r.logger.Debug("opened ledger", zap.String("handle", handle.String()))
	return handle, l
}

// Get returns the ledger for a handle.
func (r *Registry) Get(handle uuid.UUID) (*ledger.Ledger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.ledgers[handle]
	return l, ok
}

// Resolve parses a textual handle and returns its ledger.
func (r *Registry) Resolve(handle string) (*ledger.Ledger, error) {
	id, err := uuid.Parse(handle)
	if err != nil {
		return nil, errors.Wrap(err, "parsing ledger handle")
	}

	l, ok := r.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "%s", handle)
	}
	return l, nil
}

// Close drops the ledger for a handle. It reports whether a ledger was
// registered under it.
func (r *Registry) Close(handle uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[handle]; !ok {
		return false
	}
	delete(r.ledgers, handle)
	r.logger.Debug("closed ledger", zap.String("handle", handle.String()))
	return true
}

// Count returns the number of open ledgers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledgers)
}
