package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/availability"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/reservation"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/clock"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

type Service struct {
	catalog  availability.Catalog
	store    *reservation.Store
	engine   *availability.Engine
	clock    clock.Clock
	notifier Notifier
	logger   zerolog.Logger
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func NewService(cat availability.Catalog, store *reservation.Store, opts ...Option) *Service {
	s := &Service{
		catalog: cat,
		store:   store,
		engine:  availability.NewEngine(cat),
		clock:   clock.NewRealClock(),
		logger:  log.With().Str("component", "reservation_tx").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type MakeRequest struct {
	RestaurantID    string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Date            string
	Time            string
	PartySize       int
	SpecialRequests string
}

func (r MakeRequest) missing() []string {
	var out []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"restaurant_id", r.RestaurantID},
		{"customer_name", r.CustomerName},
		{"customer_phone", r.CustomerPhone},
		{"customer_email", r.CustomerEmail},
		{"date", r.Date},
		{"time", r.Time},
	} {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	if r.PartySize == 0 {
		out = append(out, "party_size")
	}
	return out
}

type Confirmation struct {
	Reservation       reservation.Reservation
	RestaurantName    string
	RestaurantAddress string
	RestaurantPhone   string
}

type slot struct {
	date string
	time string
}

// parseSlot validates date and time, in that order, and rejects moments before now.
func (s *Service) parseSlot(date, at string) (slot, error) {
	d, err := reservation.ParseDate(date)
	if err != nil {
		return slot{}, contractx.Validation("Invalid date format. Use YYYY-MM-DD")
	}
	tod, err := reservation.ParseTimeOfDay(at)
	if err != nil {
		return slot{}, contractx.Validation("Invalid time format. Use HH:MM")
	}

	now := s.clock.Now()
	when := time.Date(d.Year(), d.Month(), d.Day(), int(tod)/60, int(tod)%60, 0, 0, now.Location())
	if when.Before(now) {
		return slot{}, contractx.Validation("Cannot make reservations for past dates")
	}
	return slot{date: d.Format(reservation.DateLayout), time: tod.String()}, nil
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

func (s *Service) Make(ctx context.Context, req MakeRequest) (Confirmation, error) {
	if missing := req.missing(); len(missing) > 0 {
		return Confirmation{}, contractx.Validation("Missing required parameters: %s", strings.Join(missing, ", "))
	}
	if req.PartySize < 0 {
		return Confirmation{}, contractx.Validation("Party size must be positive")
	}
	at, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return Confirmation{}, err
	}
	if !validEmail(req.CustomerEmail) {
		return Confirmation{}, contractx.Validation("Invalid email format")
	}
	rest, ok := s.catalog.FindByID(req.RestaurantID)
	if !ok {
		return Confirmation{}, contractx.NotFound("Reservation cannot be made: Restaurant with ID '%s' not found", req.RestaurantID)
	}
	if req.PartySize > rest.Capacity {
		return Confirmation{}, errs.Mark(
			errs.Newf("Reservation cannot be made: Party size (%d) exceeds restaurant capacity (%d)", req.PartySize, rest.Capacity),
			contractx.ErrCapacityConflict,
		)
	}

	now := s.clock.Now()
	var created reservation.Reservation
	err = s.store.Update(ctx, func(tx *reservation.Tx) error {
		check, err := s.engine.Check(tx, rest.ID, at.date, at.time, req.PartySize)
		if err != nil {
			return err
		}
		if !check.Available {
			alts, err := s.engine.Alternatives(tx, rest.ID, at.date, req.PartySize)
			if err != nil {
				return err
			}
			return errs.Mark(&CapacityError{
				Available:    check.FreeCapacity,
				Requested:    req.PartySize,
				Alternatives: alts,
			}, contractx.ErrCapacityConflict)
		}

		r, err := reservation.New(reservation.Draft{
			RestaurantID:    rest.ID,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			PartySize:       req.PartySize,
			Date:            at.date,
			Time:            at.time,
			SpecialRequests: req.SpecialRequests,
		}, now)
		if err != nil {
			return err
		}
		if err := tx.Append(r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("restaurant_id", req.RestaurantID).
			Str("date", at.date).
			Str("time", at.time).
			Int("party_size", req.PartySize).
			Msg("reservation rejected")
		return Confirmation{}, err
	}

	s.logger.Info().
		Str("reservation_id", created.ID).
		Str("restaurant_id", created.RestaurantID).
		Str("date", created.Date).
		Str("time", created.Time).
		Int("party_size", created.PartySize).
		Msg("reservation created")

	s.notify(ctx, EventConfirmed, created, rest.Name, now)

	return Confirmation{
		Reservation:       created,
		RestaurantName:    rest.Name,
		RestaurantAddress: rest.Address,
		RestaurantPhone:   rest.Phone,
	}, nil
}

type CancelRequest struct {
	ReservationID string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

type Cancellation struct {
	Reservation    reservation.Reservation
	RestaurantName string
}

func (s *Service) restaurantName(id string) string {
	if r, ok := s.catalog.FindByID(id); ok {
		return r.Name
	}
	return "Unknown"
}

// matchCustomer collects active reservations matching any supplied field, in the
// order name, phone, email, without repeating an id.
func matchCustomer(active []reservation.Reservation, req CancelRequest) []reservation.Reservation {
	name := strings.TrimSpace(req.CustomerName)
	phone := strings.TrimSpace(req.CustomerPhone)
	email := strings.TrimSpace(req.CustomerEmail)

	matchers := []func(reservation.Reservation) bool{}
	if name != "" {
		matchers = append(matchers, func(r reservation.Reservation) bool { return strings.EqualFold(r.CustomerName, name) })
	}
	if phone != "" {
		matchers = append(matchers, func(r reservation.Reservation) bool { return r.CustomerPhone == phone })
	}
	if email != "" {
		matchers = append(matchers, func(r reservation.Reservation) bool { return strings.EqualFold(r.CustomerEmail, email) })
	}

	seen := map[string]struct{}{}
	var out []reservation.Reservation
	for _, match := range matchers {
		for _, r := range active {
			if _, dup := seen[r.ID]; dup || !match(r) {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) Cancel(ctx context.Context, req CancelRequest) (Cancellation, error) {
	id := strings.TrimSpace(req.ReservationID)
	if id == "" && strings.TrimSpace(req.CustomerName) == "" &&
		strings.TrimSpace(req.CustomerPhone) == "" && strings.TrimSpace(req.CustomerEmail) == "" {
		return Cancellation{}, contractx.Validation("Please provide at least one identifier: reservation ID, customer name, phone, or email")
	}

	now := s.clock.Now()
	var cancelled reservation.Reservation
	err := s.store.Update(ctx, func(tx *reservation.Tx) error {
		target := id
		if target != "" {
			r, ok := tx.FindByID(target)
			if !ok || !r.IsActive() {
				return contractx.NotFound("No active reservation found with ID: %s", target)
			}
		} else {
			matches := matchCustomer(tx.Active(), req)
			switch len(matches) {
			case 0:
				return contractx.NotFound("No active reservations found with the provided information")
			case 1:
				target = matches[0].ID
			default:
				candidates := make([]Candidate, 0, len(matches))
				for _, m := range matches {
					candidates = append(candidates, Candidate{
						ReservationID:  m.ID,
						RestaurantName: s.restaurantName(m.RestaurantID),
						Date:           m.Date,
						Time:           m.Time,
						PartySize:      m.PartySize,
					})
				}
				return errs.Mark(&AmbiguousError{Candidates: candidates}, contractx.ErrValidation)
			}
		}

		r, err := tx.SetStatus(target, reservation.StatusCancelled, now)
		if err != nil {
			return err
		}
		cancelled = r
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("reservation_id", id).Msg("cancellation rejected")
		return Cancellation{}, err
	}

	name := s.restaurantName(cancelled.RestaurantID)
	s.logger.Info().
		Str("reservation_id", cancelled.ID).
		Str("restaurant_id", cancelled.RestaurantID).
		Msg("reservation cancelled")

	s.notify(ctx, EventCancelled, cancelled, name, now)

	return Cancellation{Reservation: cancelled, RestaurantName: name}, nil
}

type CheckRequest struct {
	RestaurantID string
	Date         string
	Time         string
	PartySize    int
}

type Availability struct {
	availability.Result
	Date         string
	Time         string
	Alternatives []string
}

// CheckAvailability validates the request like Make does, then reports free
// capacity at the slot and alternatives when the party does not fit.
func (s *Service) CheckAvailability(ctx context.Context, req CheckRequest) (Availability, error) {
	if err := ctx.Err(); err != nil {
		return Availability{}, err
	}

	var missing []string
	if strings.TrimSpace(req.RestaurantID) == "" {
		missing = append(missing, "restaurant_id")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Time) == "" {
		missing = append(missing, "time")
	}
	if req.PartySize == 0 {
		missing = append(missing, "party_size")
	}
	if len(missing) > 0 {
		return Availability{}, contractx.Validation("Missing required parameters: %s", strings.Join(missing, ", "))
	}
	if req.PartySize < 0 {
		return Availability{}, contractx.Validation("Party size must be positive")
	}

	at, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return Availability{}, err
	}
	rest, ok := s.catalog.FindByID(req.RestaurantID)
	if !ok {
		return Availability{}, contractx.NotFound("Restaurant with ID '%s' not found", req.RestaurantID)
	}
	if req.PartySize > rest.Capacity {
		return Availability{}, errs.Mark(
			errs.Newf("Party size (%d) exceeds restaurant capacity (%d)", req.PartySize, rest.Capacity),
			contractx.ErrCapacityConflict,
		)
	}

	res, err := s.engine.Check(s.store, rest.ID, at.date, at.time, req.PartySize)
	if err != nil {
		return Availability{}, err
	}

	out := Availability{Result: res, Date: at.date, Time: at.time}
	if !res.Available {
		alts, err := s.engine.Alternatives(s.store, rest.ID, at.date, req.PartySize)
		if err != nil {
			return Availability{}, err
		}
		out.Alternatives = alts
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, kind string, r reservation.Reservation, restaurantName string, now time.Time) {
	if s.notifier == nil {
		return
	}
	ev := Event{
		Type:           kind,
		Reservation:    r,
		RestaurantName: restaurantName,
		OccurredAt:     now.UTC().Format(time.RFC3339),
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("event", kind).Str("reservation_id", r.ID).Msg("notify failed")
	}
}
