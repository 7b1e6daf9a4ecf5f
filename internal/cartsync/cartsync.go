// Package cartsync keeps a session's in-memory cart in step with the cart
// persisted for the signed-in user.
//
// Mutations apply to memory immediately and are followed by a full-cart save
// in the background. Saves are best-effort: a failed save is logged and the
// in-memory cart stays as it is. Every save carries a version that grows with
// each mutation, and the backend refuses versions that are not newer than the
// stored one, so an older save arriving late cannot replace a newer cart.
package cartsync

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	// ErrStaleSave is returned by a Backend that already holds a newer cart.
	ErrStaleSave = errors.New("cart save is older than the stored cart")
	// ErrNoCart is returned by a Backend that has no cart for the user.
	ErrNoCart = errors.New("no cart stored for user")
)

// Snapshot is a persisted cart.
type Snapshot struct {
	Lines   []entity.CartLine
	Version int64
}

// Backend persists carts per user.
type Backend interface {
	Load(ctx context.Context, userID string) (Snapshot, error)
	Save(ctx context.Context, userID string, lines []entity.CartLine, version int64) error
	Clear(ctx context.Context, userID string) error
}

type Option func(*Synchronizer)

// WithSaveTimeout bounds each background save.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.timeout = d }
}

// WithIDGenerator replaces the line id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Synchronizer) { s.newID = fn }
}

type Synchronizer struct {
	backend Backend
	timeout time.Duration
	newID   func() string

	mu      sync.Mutex
	userID  string
	lines   []entity.CartLine
	version int64
	loaded  bool
	// epoch changes with every identity change; a fetch started under an
	// older epoch is discarded.
	epoch uint64

	saves sync.WaitGroup
}

func New(backend Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend: backend,
		timeout: 10 * time.Second,
		newID:   uuid.NewString,
		lines:   []entity.CartLine{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUser makes userID the active identity and loads its cart. Switching
// from another user clears the in-memory cart before the fetch starts. A
// user without a stored cart gets an empty one.
func (s *Synchronizer) SetUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID != s.userID {
		s.resetLocked()
	}
	s.userID = userID
	s.epoch++
	epoch, version := s.epoch, s.version
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	return s.load(ctx, userID, epoch, version)
}

// Reload fetches the active user's cart again, replacing memory. Lines
// changed while the fetch is in flight are kept and saved on top of the
// fetched version.
func (s *Synchronizer) Reload(ctx context.Context) error {
	s.mu.Lock()
	userID := s.userID
	s.epoch++
	epoch, version := s.epoch, s.version
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	return s.load(ctx, userID, epoch, version)
}

// Clear empties the cart in memory and in storage, then adopts the stored
// version. Call it once a checkout has gone through so the ordered lines
// cannot be saved back.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	userID := s.userID
	s.lines = []entity.CartLine{}
	s.epoch++
	epoch, version := s.epoch, s.version
	s.mu.Unlock()

	if userID == "" {
		return nil
	}
	if err := s.backend.Clear(ctx, userID); err != nil {
		logger.Error().Err(err).Msgf("Error clearing cart for user %s", userID)
		return err
	}
	return s.load(ctx, userID, epoch, version)
}

// load fetches userID's cart. version is the local version when the fetch
// started; when it has moved by the time the fetch lands, local mutations
// win over the fetched lines.
func (s *Synchronizer) load(ctx context.Context, userID string, epoch uint64, version int64) error {
	snap, err := s.backend.Load(ctx, userID)
	if errors.Is(err, ErrNoCart) {
		snap, err = Snapshot{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		logger.Debug().Msgf("Discarding cart fetched for %s after identity change", userID)
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading cart for user %s", userID)
		return err
	}
	if s.loaded && s.version != version {
		if snap.Version >= s.version {
			s.version = snap.Version
			s.saveLocked()
		}
		return nil
	}
	s.lines = append([]entity.CartLine{}, snap.Lines...)
	s.version = snap.Version
	s.loaded = true
	return nil
}

// Logout forgets the user and the in-memory cart. The stored cart is left
// alone.
func (s *Synchronizer) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.userID = ""
	s.epoch++
}

func (s *Synchronizer) resetLocked() {
	s.lines = []entity.CartLine{}
	s.version = 0
	s.loaded = false
}

// Add appends line as a new entry, even when an identical line exists, and
// returns its line id.
func (s *Synchronizer) Add(line entity.CartLine) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line.CartItemID == "" {
		line.CartItemID = s.newID()
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	s.lines = append(s.lines, line)
	s.saveLocked()
	return line.CartItemID
}

// Remove drops the line with the given id. It reports whether a line was
// removed.
func (s *Synchronizer) Remove(cartItemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, line := range s.lines {
		if line.CartItemID == cartItemID {
			s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
			s.saveLocked()
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity of a line, raising anything below 1 to 1.
func (s *Synchronizer) UpdateQuantity(cartItemID string, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].CartItemID == cartItemID {
			s.lines[i].Quantity = quantity
			s.saveLocked()
			return true
		}
	}
	return false
}

// saveLocked bumps the version and sends the whole cart in the background.
// Nothing is sent before the active user's cart has loaded.
func (s *Synchronizer) saveLocked() {
	if s.userID == "" || !s.loaded {
		return
	}
	s.version++
	userID, version := s.userID, s.version
	lines := append([]entity.CartLine{}, s.lines...)

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.backend.Save(ctx, userID, lines, version)
		switch {
		case err == nil:
		case errors.Is(err, ErrStaleSave):
			logger.Warn().Msgf("Cart save v%d for user %s superseded by a newer cart", version, userID)
		default:
			logger.Error().Err(err).Msgf("Error saving cart v%d for user %s", version, userID)
		}
	}()
}

// Lines returns a copy of the in-memory cart.
func (s *Synchronizer) Lines() []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.CartLine{}, s.lines...)
}

func (s *Synchronizer) Totals() pricing.Totals {
	return pricing.Calculate(s.Lines())
}

func (s *Synchronizer) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Wait blocks until every background save has finished.
func (s *Synchronizer) Wait() {
	s.saves.Wait()
}
