package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	sampleCuisines  = []string{"Italian", "Chinese", "Japanese", "Mexican", "Indian", "French", "Thai"}
	sampleLocations = []string{"Downtown", "Midtown", "Uptown", "Westside", "Eastside", "Northside", "Southside", "Financial District"}
	sampleFeatures  = []string{
		"romantic", "family-friendly", "outdoor-seating", "live-music", "rooftop",
		"private-dining", "vegan-options", "gluten-free", "bar", "wine-bar",
		"business-friendly", "pet-friendly", "wheelchair-accessible", "parking",
		"takeout", "delivery", "catering", "late-night", "brunch", "buffet",
	}
	sampleOccasions = []string{
		"birthday", "anniversary", "business-meeting", "date-night", "family-gathering",
		"celebration", "graduation", "wedding-party", "corporate-event", "holiday-party",
	}
	sampleCapacities = []int{20, 30, 40, 50, 60, 80, 100, 120, 150, 200}
	sampleStreets    = []string{"Main", "Oak", "Pine", "Elm", "First", "Second", "Broadway", "Center"}
	sampleSuffixes   = []string{"Kitchen", "Bistro", "Grill", "House", "Garden", "Corner", "Place", "Room", "Table", "Spot", "Bar", "Cafe", "Restaurant"}
	samplePrefixes   = map[string][]string{
		"Italian":  {"Bella", "Casa", "Villa", "Mama", "Tony's", "Giuseppe's"},
		"Chinese":  {"Golden", "Dragon", "Jade", "Phoenix", "Lucky", "Ming's"},
		"Japanese": {"Sakura", "Tokyo", "Zen", "Koi", "Bamboo", "Sushi"},
		"Mexican":  {"El", "La", "Casa", "Taco", "Fiesta", "Cantina"},
		"Indian":   {"Taj", "Spice", "Curry", "Bombay", "Delhi", "Rajah"},
		"French":   {"Le", "La", "Café", "Bistro", "Chez", "Boulangerie"},
		"Thai":     {"Thai", "Siam", "Bangkok", "Lotus", "Basil", "Coconut"},
	}
	weekdayHours = []string{"9:00-22:00", "10:00-23:00", "11:00-22:30", "8:00-21:00"}
	weekendHours = []string{"9:00-23:00", "10:00-24:00", "11:00-23:30", "8:00-22:00"}
)

func pick[T any](rng *rand.Rand, from []T) T {
	return from[rng.IntN(len(from))]
}

func sample(rng *rand.Rand, from []string, lo, hi int) []string {
	n := lo + rng.IntN(hi-lo+1)
	perm := rng.Perm(len(from))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, from[idx])
	}
	return out
}

// Generate produces count plausible sample restaurants with ids rest_001, rest_002, ...
func Generate(rng *rand.Rand, count int) []Restaurant {
	out := make([]Restaurant, 0, count)
	for i := 0; i < count; i++ {
		cuisine := pick(rng, sampleCuisines)
		location := pick(rng, sampleLocations)
		name := pick(rng, samplePrefixes[cuisine]) + " " + pick(rng, sampleSuffixes)
		features := sample(rng, sampleFeatures, 2, 6)

		desc := fmt.Sprintf("Authentic %s cuisine served in a welcoming atmosphere.", strings.ToLower(cuisine))
		for _, f := range features {
			switch f {
			case "romantic":
				desc += " Perfect for intimate dining and special occasions."
			case "family-friendly":
				desc += " Great for families with children."
			case "outdoor-seating":
				desc += " Enjoy dining on our beautiful patio."
			}
		}

		hours := map[string]string{}
		for _, day := range []string{"monday", "tuesday", "wednesday", "thursday"} {
			hours[day] = pick(rng, weekdayHours)
		}
		for _, day := range []string{"friday", "saturday", "sunday"} {
			hours[day] = pick(rng, weekendHours)
		}

		mailbox := strings.NewReplacer(" ", "", "'", "").Replace(strings.ToLower(name))
		rec := Record{
			ID:               fmt.Sprintf("rest_%03d", i+1),
			Name:             name,
			CuisineType:      cuisine,
			Location:         location,
			Address:          fmt.Sprintf("%d %s St, %s", 100+rng.IntN(9900), pick(rng, sampleStreets), location),
			Phone:            fmt.Sprintf("(%d) %d-%d", 200+rng.IntN(800), 100+rng.IntN(900), 1000+rng.IntN(9000)),
			Email:            "info@" + mailbox + ".com",
			Capacity:         pick(rng, sampleCapacities),
			PriceRange:       pick(rng, PriceRanges),
			Rating:           float64(35+rng.IntN(16)) / 10,
			Description:      desc,
			Features:         features,
			OpeningHours:     hours,
			SpecialOccasions: sample(rng, sampleOccasions, 1, 4),
		}

		r, err := NewRestaurant(rec)
		if err != nil {
			// generated records always satisfy the constructor
			panic(err)
		}
		out = append(out, r)
	}
	return out
}
