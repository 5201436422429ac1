package catalog

import (
	"strings"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
)

// PriceRanges lists the accepted price tiers, cheapest first.
var PriceRanges = []string{"$20", "$30", "$40", "$50"}

func validPriceRange(v string) bool {
	for _, p := range PriceRanges {
		if p == v {
			return true
		}
	}
	return false
}

// Record is the on-disk shape of a restaurant entry.
type Record struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	CuisineType      string            `json:"cuisine_type" yaml:"cuisine_type"`
	Location         string            `json:"location" yaml:"location"`
	Address          string            `json:"address" yaml:"address"`
	Phone            string            `json:"phone" yaml:"phone"`
	Email            string            `json:"email" yaml:"email"`
	Capacity         int               `json:"capacity" yaml:"capacity"`
	PriceRange       string            `json:"price_range" yaml:"price_range"`
	Rating           float64           `json:"rating" yaml:"rating"`
	Description      string            `json:"description" yaml:"description"`
	Features         []string          `json:"features" yaml:"features"`
	OpeningHours     map[string]string `json:"opening_hours" yaml:"opening_hours"`
	SpecialOccasions []string          `json:"special_occasions" yaml:"special_occasions"`
}

// Restaurant is a validated catalog entry. Values are never mutated after load.
type Restaurant struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	CuisineType      string            `json:"cuisine_type"`
	Location         string            `json:"location"`
	Address          string            `json:"address"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email"`
	Capacity         int               `json:"capacity"`
	PriceRange       string            `json:"price_range"`
	Rating           float64           `json:"rating"`
	Description      string            `json:"description"`
	Features         []string          `json:"features"`
	OpeningHours     map[string]string `json:"opening_hours"`
	SpecialOccasions []string          `json:"special_occasions"`
}

func NewRestaurant(rec Record) (Restaurant, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Restaurant{}, contractx.Validation("restaurant id is required")
	}
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return Restaurant{}, contractx.Validation("restaurant %s: name is required", id)
	}
	if rec.Capacity <= 0 {
		return Restaurant{}, contractx.Validation("restaurant %s: capacity must be positive", id)
	}
	if rec.Rating < 0 || rec.Rating > 5 {
		return Restaurant{}, contractx.Validation("restaurant %s: rating must be between 0 and 5", id)
	}
	if !validPriceRange(rec.PriceRange) {
		return Restaurant{}, contractx.Validation("restaurant %s: price range %q must be one of %s", id, rec.PriceRange, strings.Join(PriceRanges, ", "))
	}

	hours := make(map[string]string, len(rec.OpeningHours))
	for day, span := range rec.OpeningHours {
		hours[strings.ToLower(strings.TrimSpace(day))] = strings.TrimSpace(span)
	}

	return Restaurant{
		ID:               id,
		Name:             name,
		CuisineType:      strings.TrimSpace(rec.CuisineType),
		Location:         strings.TrimSpace(rec.Location),
		Address:          strings.TrimSpace(rec.Address),
		Phone:            strings.TrimSpace(rec.Phone),
		Email:            strings.TrimSpace(rec.Email),
		Capacity:         rec.Capacity,
		PriceRange:       rec.PriceRange,
		Rating:           rec.Rating,
		Description:      strings.TrimSpace(rec.Description),
		Features:         cleanTags(rec.Features),
		OpeningHours:     hours,
		SpecialOccasions: cleanTags(rec.SpecialOccasions),
	}, nil
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// HasFeature reports whether the restaurant carries tag, ignoring case.
func (r Restaurant) HasFeature(tag string) bool {
	for _, f := range r.Features {
		if strings.EqualFold(f, tag) {
			return true
		}
	}
	return false
}

// Record converts back to the on-disk shape.
func (r Restaurant) Record() Record {
	return Record{
		ID:               r.ID,
		Name:             r.Name,
		CuisineType:      r.CuisineType,
		Location:         r.Location,
		Address:          r.Address,
		Phone:            r.Phone,
		Email:            r.Email,
		Capacity:         r.Capacity,
		PriceRange:       r.PriceRange,
		Rating:           r.Rating,
		Description:      r.Description,
		Features:         append([]string(nil), r.Features...),
		OpeningHours:     r.OpeningHours,
		SpecialOccasions: append([]string(nil), r.SpecialOccasions...),
	}
}
