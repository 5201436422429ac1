package catalog

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

func mustRestaurant(t *testing.T, rec Record) Restaurant {
	t.Helper()
	r, err := NewRestaurant(rec)
	if err != nil {
		t.Fatalf("NewRestaurant() error = %v", err)
	}
	return r
}

func fixtureStore(t *testing.T) *Store {
	t.Helper()
	return NewStore([]Restaurant{
		mustRestaurant(t, Record{ID: "rest_001", Name: "Bella Kitchen", CuisineType: "Italian", Location: "Downtown", Capacity: 40, PriceRange: "$30", Rating: 4.2, Features: []string{"romantic", "wine-bar"}}),
		mustRestaurant(t, Record{ID: "rest_002", Name: "Golden Grill", CuisineType: "Chinese", Location: "Uptown", Capacity: 60, PriceRange: "$20", Rating: 4.8, Features: []string{"family-friendly"}}),
		mustRestaurant(t, Record{ID: "rest_003", Name: "Casa Place", CuisineType: "Italian", Location: "Financial District", Capacity: 20, PriceRange: "$50", Rating: 4.2, Features: []string{"Romantic", "rooftop"}}),
		mustRestaurant(t, Record{ID: "rest_004", Name: "Zen Bar", CuisineType: "Japanese", Location: "downtown", Capacity: 30, PriceRange: "$40", Rating: 3.9}),
	})
}

func ids(rs []Restaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestNewRestaurantRejectsInvalid(t *testing.T) {
	t.Parallel()

	base := Record{ID: "rest_001", Name: "Bella", Capacity: 10, PriceRange: "$20", Rating: 4}
	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{name: "missing id", mutate: func(r *Record) { r.ID = " " }},
		{name: "missing name", mutate: func(r *Record) { r.Name = "" }},
		{name: "zero capacity", mutate: func(r *Record) { r.Capacity = 0 }},
		{name: "rating above five", mutate: func(r *Record) { r.Rating = 5.1 }},
		{name: "negative rating", mutate: func(r *Record) { r.Rating = -1 }},
		{name: "unknown price range", mutate: func(r *Record) { r.PriceRange = "$$" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := base
			tt.mutate(&rec)
			_, err := NewRestaurant(rec)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errs.Is(err, contractx.ErrValidation) {
				t.Fatalf("error = %v, want validation mark", err)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	store := fixtureStore(t)
	minRating := 4.0

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "no criteria orders by rating", criteria: Criteria{}, want: []string{"rest_002", "rest_001", "rest_003", "rest_004"}},
		{name: "cuisine substring ignores case", criteria: Criteria{Cuisine: "ital"}, want: []string{"rest_001", "rest_003"}},
		{name: "location ignores case", criteria: Criteria{Location: "DOWNTOWN"}, want: []string{"rest_001", "rest_004"}},
		{name: "every feature required", criteria: Criteria{Features: []string{"romantic", "ROOFTOP"}}, want: []string{"rest_003"}},
		{name: "exact price range", criteria: Criteria{PriceRange: "$20"}, want: []string{"rest_002"}},
		{name: "min rating inclusive", criteria: Criteria{MinRating: &minRating}, want: []string{"rest_002", "rest_001", "rest_003"}},
		{name: "limit", criteria: Criteria{Limit: 2}, want: []string{"rest_002", "rest_001"}},
		{name: "no match", criteria: Criteria{Cuisine: "Peruvian"}, want: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ids(store.Search(tt.criteria))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Search() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	store := fixtureStore(t)
	r, ok := store.FindByID("rest_003")
	if !ok || r.Name != "Casa Place" {
		t.Fatalf("FindByID(rest_003) = %+v, %v", r, ok)
	}
	if _, ok := store.FindByID("rest_999"); ok {
		t.Fatal("FindByID(rest_999) should miss")
	}
}

func TestLoadJSONSkipsInvalidRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "restaurants.json")
	body := `[
	  {"id":"rest_001","name":"Bella Kitchen","cuisine_type":"Italian","location":"Downtown","capacity":40,"price_range":"$30","rating":4.2},
	  {"id":"rest_002","name":"Broken","capacity":0,"price_range":"$30","rating":4.2},
	  {"id":"rest_001","name":"Duplicate","capacity":10,"price_range":"$30","rating":4.2},
	  {"id":"rest_003","name":"Zen Bar","cuisine_type":"Japanese","location":"Uptown","capacity":30,"price_range":"$40","rating":3.9}
	]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"rest_001", "rest_003"}, ids(store.All())); diff != "" {
		t.Fatalf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "restaurants.yaml")
	body := `
- id: rest_010
  name: Siam Garden
  cuisine_type: Thai
  location: Eastside
  capacity: 50
  price_range: $20
  rating: 4.4
  features: [vegan-options, takeout]
  opening_hours:
    Monday: 11:00-22:30
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	r, ok := store.FindByID("rest_010")
	if !ok {
		t.Fatal("rest_010 not loaded")
	}
	if !r.HasFeature("Vegan-Options") {
		t.Fatalf("features = %v", r.Features)
	}
	if r.OpeningHours["monday"] != "11:00-22:30" {
		t.Fatalf("opening hours = %v", r.OpeningHours)
	}
}

func TestLoadMissingFileIsEmptyAndReported(t *testing.T) {
	t.Parallel()

	store, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errs.Is(err, contractx.ErrPersistence) {
		t.Fatalf("error = %v, want persistence mark", err)
	}
	if store == nil || store.Len() != 0 {
		t.Fatalf("expected empty store, got %+v", store)
	}
}

func TestLoadMalformedFileIsEmptyAndReported(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "restaurants.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := Load(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for malformed file")
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestGenerateIsValidAndDeterministic(t *testing.T) {
	t.Parallel()

	a := Generate(rand.New(rand.NewPCG(1, 2)), 25)
	b := Generate(rand.New(rand.NewPCG(1, 2)), 25)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("Generate() not deterministic (-a +b):\n%s", diff)
	}
	if a[0].ID != "rest_001" || a[24].ID != "rest_025" {
		t.Fatalf("ids = %s..%s", a[0].ID, a[24].ID)
	}
	for _, r := range a {
		if _, err := NewRestaurant(r.Record()); err != nil {
			t.Fatalf("generated restaurant %s invalid: %v", r.ID, err)
		}
	}
}
