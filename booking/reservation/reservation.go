package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

type Reservation struct {
	ID              string `json:"id"`
	RestaurantID    string `json:"restaurant_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	PartySize       int    `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	SpecialRequests string `json:"special_requests"`
	Status          Status `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func (r Reservation) IsActive() bool {
	return r.Status == StatusConfirmed
}

// StartsAt returns the booked time of day. Records that reached the store are already validated.
func (r Reservation) StartsAt() TimeOfDay {
	t, _ := ParseTimeOfDay(r.Time)
	return t
}

// Validate checks the invariants every stored record must hold.
func (r Reservation) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return contractx.Validation("reservation id is required")
	}
	if strings.TrimSpace(r.RestaurantID) == "" {
		return contractx.Validation("reservation %s: restaurant id is required", r.ID)
	}
	if r.PartySize <= 0 {
		return contractx.Validation("reservation %s: party size must be positive", r.ID)
	}
	if _, err := ParseDate(r.Date); err != nil {
		return contractx.Validation("reservation %s: date must be in YYYY-MM-DD format", r.ID)
	}
	if _, err := ParseTimeOfDay(r.Time); err != nil {
		return contractx.Validation("reservation %s: time must be in HH:MM format", r.ID)
	}
	switch r.Status {
	case StatusConfirmed, StatusCancelled:
	default:
		return contractx.Validation("reservation %s: unknown status %q", r.ID, r.Status)
	}
	return nil
}

// Draft carries the caller-supplied fields of a reservation about to be created.
type Draft struct {
	RestaurantID    string
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	PartySize       int
	Date            string
	Time            string
	SpecialRequests string
}

// New builds a confirmed reservation with a fresh id. Date and time are stored in canonical form.
func New(d Draft, now time.Time) (Reservation, error) {
	if d.PartySize <= 0 {
		return Reservation{}, contractx.Validation("Party size must be positive")
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Reservation{}, contractx.Validation("Invalid date format. Use YYYY-MM-DD")
	}
	tod, err := ParseTimeOfDay(d.Time)
	if err != nil {
		return Reservation{}, contractx.Validation("Invalid time format. Use HH:MM")
	}

	r := Reservation{
		ID:              uuid.NewString(),
		RestaurantID:    strings.TrimSpace(d.RestaurantID),
		CustomerName:    strings.TrimSpace(d.CustomerName),
		CustomerPhone:   strings.TrimSpace(d.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(d.CustomerEmail),
		PartySize:       d.PartySize,
		Date:            date.Format(DateLayout),
		Time:            tod.String(),
		SpecialRequests: strings.TrimSpace(d.SpecialRequests),
		Status:          StatusConfirmed,
		CreatedAt:       now.UTC().Format(time.RFC3339),
	}
	if err := r.Validate(); err != nil {
		return Reservation{}, err
	}
	return r, nil
}
