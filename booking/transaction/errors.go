package transaction

import "fmt"

// CapacityError reports that the requested slot no longer has room.
type CapacityError struct {
	Available    int
	Requested    int
	Alternatives []string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Reservation cannot be made: Not enough capacity. Available: %d, Requested: %d", e.Available, e.Requested)
}

type Candidate struct {
	ReservationID  string `json:"reservation_id"`
	RestaurantName string `json:"restaurant_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PartySize      int    `json:"party_size"`
}

// AmbiguousError is returned by Cancel when the customer details match more than
// one active reservation. Nothing is cancelled.
type AmbiguousError struct {
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("Multiple reservations found (%d). Please specify which one to cancel using the reservation ID.", len(e.Candidates))
}
