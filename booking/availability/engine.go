package availability

import (
	"time"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/catalog"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/reservation"
)

const (
	// OccupancyWindow is how long a confirmed reservation holds its seats.
	OccupancyWindow = 2 * time.Hour
	SweepStep       = 30 * time.Minute
	MaxAlternatives = 10
)

var (
	sweepStart = reservation.TimeOfDay(11 * 60)
	sweepEnd   = reservation.TimeOfDay(21 * 60)
)

// Source yields the confirmed reservations of one restaurant on one date.
// Both *reservation.Store and *reservation.Tx satisfy it.
type Source interface {
	FindActiveByRestaurantAndDate(restaurantID, date string) []reservation.Reservation
}

type Catalog interface {
	FindByID(id string) (catalog.Restaurant, bool)
}

type Result struct {
	Restaurant   catalog.Restaurant
	Capacity     int
	Occupied     int
	FreeCapacity int
	Available    bool
}

type Engine struct {
	catalog Catalog
}

func NewEngine(c Catalog) *Engine {
	return &Engine{catalog: c}
}

// Occupied sums party sizes of reservations whose [start, start+window) contains at.
func Occupied(rs []reservation.Reservation, at reservation.TimeOfDay) int {
	total := 0
	for _, r := range rs {
		start := r.StartsAt()
		end := start.Add(OccupancyWindow)
		if start <= at && at < end {
			total += r.PartySize
		}
	}
	return total
}

func (e *Engine) restaurant(id string) (catalog.Restaurant, error) {
	r, ok := e.catalog.FindByID(id)
	if !ok {
		return catalog.Restaurant{}, contractx.NotFound("Restaurant with ID '%s' not found", id)
	}
	return r, nil
}

// Check computes free capacity at the given time. Available holds when the free
// seats cover partySize.
func (e *Engine) Check(src Source, restaurantID, date, at string, partySize int) (Result, error) {
	if partySize <= 0 {
		return Result{}, contractx.Validation("Party size must be positive")
	}
	tod, err := reservation.ParseTimeOfDay(at)
	if err != nil {
		return Result{}, contractx.Validation("Invalid time format. Use HH:MM")
	}
	r, err := e.restaurant(restaurantID)
	if err != nil {
		return Result{}, err
	}

	occupied := Occupied(src.FindActiveByRestaurantAndDate(restaurantID, date), tod)
	free := r.Capacity - occupied
	return Result{
		Restaurant:   r,
		Capacity:     r.Capacity,
		Occupied:     occupied,
		FreeCapacity: free,
		Available:    free >= partySize,
	}, nil
}

// Alternatives sweeps 11:00 through 21:00 in 30 minute steps and returns up to
// MaxAlternatives slots, earliest first, where partySize still fits.
func (e *Engine) Alternatives(src Source, restaurantID, date string, partySize int) ([]string, error) {
	r, err := e.restaurant(restaurantID)
	if err != nil {
		return nil, err
	}

	booked := src.FindActiveByRestaurantAndDate(restaurantID, date)
	slots := make([]string, 0, MaxAlternatives)
	for slot := sweepStart; slot <= sweepEnd && len(slots) < MaxAlternatives; slot = slot.Add(SweepStep) {
		if r.Capacity-Occupied(booked, slot) >= partySize {
			slots = append(slots, slot.String())
		}
	}
	return slots, nil
}
