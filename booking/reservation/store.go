package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

// Store owns the reservation collection. Reads share a read lock; Update is the
// only mutation path and holds the write lock from check to durable write.
type Store struct {
	mu    sync.RWMutex
	snap  Snapshotter
	items []Reservation
	// retained holds persisted records that fail validation or repeat an id.
	// They are invisible to reads and written back unchanged on every save.
	retained []Reservation
	// loadErr is set while the snapshot could not be read. Writes are refused
	// until the snapshot is quarantined or reloaded.
	loadErr error
	logger  zerolog.Logger
}

// Quarantiner is implemented by snapshotters that can move an unreadable
// snapshot aside so a fresh one can be written.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// Open loads the collection from snap. On load failure the store starts empty and
// the error is returned for reporting; reads still work and writes go through
// writable first.
func Open(ctx context.Context, snap Snapshotter) (*Store, error) {
	s := &Store{
		snap:   snap,
		items:  []Reservation{},
		logger: log.With().Str("component", "reservation_store").Logger(),
	}
	if err := s.Reload(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Reload replaces the in-memory collection with the persisted one.
// Invalid and duplicate records are retained for write-back but never served.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.snap.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reservation load failed, starting empty")
		s.items = []Reservation{}
		s.retained = nil
		s.loadErr = err
		return err
	}

	items := make([]Reservation, 0, len(loaded))
	var retained []Reservation
	seen := make(map[string]struct{}, len(loaded))
	for i, r := range loaded {
		if err := r.Validate(); err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("retaining invalid reservation record")
			retained = append(retained, r)
			continue
		}
		if _, dup := seen[r.ID]; dup {
			s.logger.Warn().Str("reservation_id", r.ID).Msg("retaining duplicate reservation id")
			retained = append(retained, r)
			continue
		}
		seen[r.ID] = struct{}{}
		items = append(items, r)
	}
	s.items = items
	s.retained = retained
	s.loadErr = nil

	s.logger.Info().Int("count", len(items)).Int("retained", len(retained)).Msg("reservations loaded")
	return nil
}

// writable clears a pending load failure by quarantining the unreadable
// snapshot. Callers hold the write lock.
func (s *Store) writable(ctx context.Context) error {
	if s.loadErr == nil {
		return nil
	}
	q, ok := s.snap.(Quarantiner)
	if !ok {
		return errs.Mark(
			errs.Wrap(s.loadErr, "reservations were not loaded, refusing to overwrite the snapshot"),
			contractx.ErrPersistence,
		)
	}
	moved, err := q.Quarantine(ctx)
	if err != nil {
		return errs.Mark(errs.Wrap(err, "quarantine unreadable reservations"), contractx.ErrPersistence)
	}
	s.logger.Warn().Str("moved_to", moved).Msg("unreadable reservation snapshot quarantined")
	s.loadErr = nil
	return nil
}

// persisted is the full collection written to the snapshotter.
func (s *Store) persisted(items []Reservation) []Reservation {
	out := make([]Reservation, 0, len(items)+len(s.retained))
	out = append(out, items...)
	return append(out, s.retained...)
}

// Save writes the current collection through the snapshotter.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(ctx); err != nil {
		return err
	}
	if err := s.snap.Save(ctx, s.persisted(s.items)); err != nil {
		s.logger.Error().Err(err).Msg("reservation save failed")
		return err
	}
	return nil
}

func (s *Store) All() []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.items)
}

func (s *Store) FindByID(id string) (Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByID(s.items, id)
}

// FindActiveByRestaurantAndDate returns confirmed reservations only.
func (s *Store) FindActiveByRestaurantAndDate(restaurantID, date string) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findActive(s.items, restaurantID, date)
}

// Update runs fn against a working copy while holding the write lock. The copy is
// persisted and then published only if fn succeeds and changed something. Any error
// leaves both memory and the persisted snapshot untouched.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{items: cloneAll(s.items)}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	if err := s.writable(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reservation change refused")
		return err
	}
	if err := s.snap.Save(ctx, s.persisted(tx.items)); err != nil {
		s.logger.Error().Err(err).Strs("stack", errs.ExtractStackLines(err, 8)).Msg("reservation save failed, change discarded")
		if errs.Is(err, contractx.ErrPersistence) {
			return err
		}
		return errs.Mark(errs.Wrap(err, "save reservations"), contractx.ErrPersistence)
	}

	s.items = tx.items
	s.logger.Info().Int("count", len(s.items)).Msg("reservations saved")
	return nil
}

// Tx is the working view handed to Update callbacks. It must not be retained
// after the callback returns.
type Tx struct {
	items []Reservation
	dirty bool
}

func (tx *Tx) All() []Reservation {
	return cloneAll(tx.items)
}

func (tx *Tx) FindByID(id string) (Reservation, bool) {
	return findByID(tx.items, id)
}

func (tx *Tx) FindActiveByRestaurantAndDate(restaurantID, date string) []Reservation {
	return findActive(tx.items, restaurantID, date)
}

// Active returns every confirmed reservation in collection order.
func (tx *Tx) Active() []Reservation {
	out := make([]Reservation, 0, len(tx.items))
	for _, r := range tx.items {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

func (tx *Tx) Append(r Reservation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, exists := findByID(tx.items, r.ID); exists {
		return contractx.Validation("reservation id %s already exists", r.ID)
	}
	tx.items = append(tx.items, r)
	tx.dirty = true
	return nil
}

// SetStatus changes the status of reservation id and stamps updated_at.
func (tx *Tx) SetStatus(id string, status Status, now time.Time) (Reservation, error) {
	for i := range tx.items {
		if tx.items[i].ID != id {
			continue
		}
		tx.items[i].Status = status
		tx.items[i].UpdatedAt = now.UTC().Format(time.RFC3339)
		tx.dirty = true
		return tx.items[i], nil
	}
	return Reservation{}, contractx.NotFound("No reservation found with ID: %s", id)
}

func cloneAll(items []Reservation) []Reservation {
	out := make([]Reservation, len(items))
	copy(out, items)
	return out
}

func findByID(items []Reservation, id string) (Reservation, bool) {
	for _, r := range items {
		if r.ID == id {
			return r, true
		}
	}
	return Reservation{}, false
}

func findActive(items []Reservation, restaurantID, date string) []Reservation {
	out := make([]Reservation, 0)
	for _, r := range items {
		if r.IsActive() && r.RestaurantID == restaurantID && r.Date == date {
			out = append(out, r)
		}
	}
	return out
}
