package tool

import (
	"context"
	"fmt"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/catalog"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/transaction"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

const (
	ToolSearchRestaurants = "search_restaurants"
	ToolCheckAvailability = "check_availability"
	ToolMakeReservation   = "make_reservation"
	ToolCancelReservation = "cancel_reservation"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

func float(v float64) *float64 { return &v }

// Searcher is the catalog lookup behind search_restaurants.
type Searcher interface {
	Search(c catalog.Criteria) []catalog.Restaurant
}

// Reservations is the transactional surface behind the booking tools.
type Reservations interface {
	CheckAvailability(ctx context.Context, req transaction.CheckRequest) (transaction.Availability, error)
	Make(ctx context.Context, req transaction.MakeRequest) (transaction.Confirmation, error)
	Cancel(ctx context.Context, req transaction.CancelRequest) (transaction.Cancellation, error)
}

// NewGoodFoods wires the four reservation tools.
func NewGoodFoods(cat Searcher, svc Reservations) *Registry {
	return MustNewRegistry(
		searchSpec(cat),
		checkSpec(svc),
		makeSpec(svc),
		cancelSpec(svc),
	)
}

func searchSpec(cat Searcher) Spec {
	return Spec{
		Name:        ToolSearchRestaurants,
		Description: "Search for restaurants based on cuisine type, location, features (like romantic, family-friendly), price range, and minimum rating. Returns a list of matching restaurants with their details.",
		Params: []Param{
			{Name: "cuisine", Type: TypeString, Desc: "Cuisine type (e.g., 'Italian', 'Chinese', 'Mexican')"},
			{Name: "location", Type: TypeString, Desc: "Location area (e.g., 'Downtown', 'Westside', 'Uptown')"},
			{Name: "features", Type: TypeArray, Items: TypeString, Desc: "List of desired features (e.g., ['romantic', 'outdoor-seating', 'family-friendly'])"},
			{Name: "price_range", Type: TypeString, Enum: catalog.PriceRanges, Desc: "Price range from $20 (cheap) to $50 (expensive)"},
			{Name: "min_rating", Type: TypeNumber, Minimum: float(0), Maximum: float(5), Desc: "Minimum rating (0-5 scale)"},
			{Name: "limit", Type: TypeInteger, Minimum: float(1), Maximum: float(MaxSearchLimit), Default: DefaultSearchLimit, Desc: "Maximum number of results to return (default: 10)"},
		},
		Handler: func(_ context.Context, args Args) (string, map[string]any, error) {
			var c catalog.Criteria
			var err error
			if c.Cuisine, err = args.String("cuisine"); err != nil {
				return "", nil, err
			}
			if c.Location, err = args.String("location"); err != nil {
				return "", nil, err
			}
			if c.Features, err = args.Strings("features"); err != nil {
				return "", nil, err
			}
			if c.PriceRange, err = args.String("price_range"); err != nil {
				return "", nil, err
			}
			if c.MinRating, err = args.Float("min_rating"); err != nil {
				return "", nil, err
			}
			limit, err := args.Int("limit")
			if err != nil {
				return "", nil, err
			}
			c.Limit = clampLimit(limit)

			found := cat.Search(c)
			items := make([]map[string]any, 0, len(found))
			for _, r := range found {
				items = append(items, restaurantPayload(r))
			}
			payload := map[string]any{"restaurants": items, "count": len(items)}
			if len(items) == 0 {
				return "No restaurants found matching your criteria.", payload, nil
			}
			return fmt.Sprintf("Found %d restaurants matching your criteria.", len(items)), payload, nil
		},
	}
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultSearchLimit
	case n > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return n
	}
}

func restaurantPayload(r catalog.Restaurant) map[string]any {
	return map[string]any{
		"id":            r.ID,
		"name":          r.Name,
		"cuisine_type":  r.CuisineType,
		"location":      r.Location,
		"address":       r.Address,
		"phone":         r.Phone,
		"capacity":      r.Capacity,
		"price_range":   r.PriceRange,
		"rating":        r.Rating,
		"description":   r.Description,
		"features":      r.Features,
		"opening_hours": r.OpeningHours,
	}
}

func checkSpec(svc Reservations) Spec {
	return Spec{
		Name:        ToolCheckAvailability,
		Description: "Check if a restaurant has availability for a specific date, time, and party size. Returns available time slots if the exact time is not available.",
		Params: []Param{
			{Name: "restaurant_id", Type: TypeString, Required: true, Desc: "Restaurant ID to check availability for"},
			{Name: "date", Type: TypeString, Required: true, Desc: "Date in YYYY-MM-DD format"},
			{Name: "time", Type: TypeString, Required: true, Desc: "Desired time in HH:MM format (24-hour)"},
			{Name: "party_size", Type: TypeInteger, Required: true, Minimum: float(1), Desc: "Number of people in the party"},
		},
		Handler: func(ctx context.Context, args Args) (string, map[string]any, error) {
			unavailable := map[string]any{"available": false}

			var req transaction.CheckRequest
			var err error
			if req.RestaurantID, err = args.String("restaurant_id"); err != nil {
				return "", unavailable, err
			}
			if req.Date, err = args.String("date"); err != nil {
				return "", unavailable, err
			}
			if req.Time, err = args.String("time"); err != nil {
				return "", unavailable, err
			}
			if req.PartySize, err = args.Int("party_size"); err != nil {
				return "", unavailable, err
			}

			res, err := svc.CheckAvailability(ctx, req)
			if err != nil {
				return "", unavailable, err
			}

			if res.Available {
				return fmt.Sprintf("Table for %d is available at %s on %s", req.PartySize, res.Time, res.Date), map[string]any{
					"available":          true,
					"restaurant_name":    res.Restaurant.Name,
					"requested_time":     res.Time,
					"available_capacity": res.FreeCapacity,
				}, nil
			}
			return fmt.Sprintf("Requested time not available, but found %d alternative slots", len(res.Alternatives)), map[string]any{
				"available":                            false,
				"restaurant_name":                      res.Restaurant.Name,
				"requested_time":                       res.Time,
				"alternative_slots":                    nonNil(res.Alternatives),
				"available_capacity_at_requested_time": res.FreeCapacity,
			}, nil
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func makeSpec(svc Reservations) Spec {
	return Spec{
		Name:        ToolMakeReservation,
		Description: "Make a reservation at a restaurant. Requires restaurant ID, customer details, date, time, and party size.",
		Params: []Param{
			{Name: "restaurant_id", Type: TypeString, Required: true, Desc: "Restaurant ID to make reservation at"},
			{Name: "customer_name", Type: TypeString, Required: true, Desc: "Customer's full name"},
			{Name: "customer_phone", Type: TypeString, Required: true, Desc: "Customer's phone number"},
			{Name: "customer_email", Type: TypeString, Required: true, Desc: "Customer's email address"},
			{Name: "date", Type: TypeString, Required: true, Desc: "Reservation date in YYYY-MM-DD format"},
			{Name: "time", Type: TypeString, Required: true, Desc: "Reservation time in HH:MM format (24-hour)"},
			{Name: "party_size", Type: TypeInteger, Required: true, Minimum: float(1), Desc: "Number of people in the party"},
			{Name: "special_requests", Type: TypeString, Desc: "Any special requests or notes (optional)"},
		},
		Handler: func(ctx context.Context, args Args) (string, map[string]any, error) {
			var req transaction.MakeRequest
			for _, f := range []struct {
				name string
				dst  *string
			}{
				{"restaurant_id", &req.RestaurantID},
				{"customer_name", &req.CustomerName},
				{"customer_phone", &req.CustomerPhone},
				{"customer_email", &req.CustomerEmail},
				{"date", &req.Date},
				{"time", &req.Time},
				{"special_requests", &req.SpecialRequests},
			} {
				v, err := args.String(f.name)
				if err != nil {
					return "", nil, err
				}
				*f.dst = v
			}
			var err error
			if req.PartySize, err = args.Int("party_size"); err != nil {
				return "", nil, err
			}

			conf, err := svc.Make(ctx, req)
			if err != nil {
				var capErr *transaction.CapacityError
				if errs.As(err, &capErr) {
					return "", map[string]any{
						"available_capacity": capErr.Available,
						"alternative_slots":  nonNil(capErr.Alternatives),
					}, err
				}
				return "", nil, err
			}

			r := conf.Reservation
			return fmt.Sprintf("Reservation confirmed for %s", r.CustomerName), map[string]any{
				"reservation": map[string]any{
					"reservation_id":     r.ID,
					"restaurant_name":    conf.RestaurantName,
					"customer_name":      r.CustomerName,
					"date":               r.Date,
					"time":               r.Time,
					"party_size":         r.PartySize,
					"special_requests":   r.SpecialRequests,
					"restaurant_address": conf.RestaurantAddress,
					"restaurant_phone":   conf.RestaurantPhone,
					"status":             string(r.Status),
				},
			}, nil
		},
	}
}

const cancelIdentifierMessage = "Please provide at least one identifier: reservation ID, customer name, phone, or email"

func cancelSpec(svc Reservations) Spec {
	return Spec{
		Name:        ToolCancelReservation,
		Description: "Cancel an existing reservation. Provide the reservation ID, or the customer name, phone, or email used when booking.",
		Params: []Param{
			{Name: "reservation_id", Type: TypeString, Desc: "Reservation ID to cancel"},
			{Name: "customer_name", Type: TypeString, Desc: "Customer name on the reservation"},
			{Name: "customer_phone", Type: TypeString, Desc: "Customer phone number on the reservation"},
			{Name: "customer_email", Type: TypeString, Desc: "Customer email on the reservation"},
		},
		AnyOf: [][]string{
			{"reservation_id"},
			{"customer_name"},
			{"customer_phone"},
			{"customer_email"},
		},
		AnyOfMessage: cancelIdentifierMessage,
		Handler: func(ctx context.Context, args Args) (string, map[string]any, error) {
			var req transaction.CancelRequest
			for _, f := range []struct {
				name string
				dst  *string
			}{
				{"reservation_id", &req.ReservationID},
				{"customer_name", &req.CustomerName},
				{"customer_phone", &req.CustomerPhone},
				{"customer_email", &req.CustomerEmail},
			} {
				v, err := args.String(f.name)
				if err != nil {
					return "", nil, err
				}
				*f.dst = v
			}

			res, err := svc.Cancel(ctx, req)
			if err != nil {
				var amb *transaction.AmbiguousError
				if errs.As(err, &amb) {
					return "", map[string]any{"reservations": amb.Candidates}, err
				}
				return "", nil, err
			}

			r := res.Reservation
			return fmt.Sprintf("Reservation successfully cancelled for %s", r.CustomerName), map[string]any{
				"cancelled_reservation": map[string]any{
					"reservation_id":  r.ID,
					"restaurant_name": res.RestaurantName,
					"customer_name":   r.CustomerName,
					"date":            r.Date,
					"time":            r.Time,
					"party_size":      r.PartySize,
					"status":          string(r.Status),
				},
			}, nil
		},
	}
}

var _ Reservations = (*transaction.Service)(nil)
var _ Searcher = (*catalog.Store)(nil)
