package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

// Store is the read-only restaurant catalog. It is built once and shared without locking.
type Store struct {
	restaurants []Restaurant
	byID        map[string]int
}

// NewStore indexes restaurants in the given order. The first entry wins on duplicate ids.
func NewStore(restaurants []Restaurant) *Store {
	s := &Store{
		restaurants: make([]Restaurant, 0, len(restaurants)),
		byID:        make(map[string]int, len(restaurants)),
	}
	for _, r := range restaurants {
		if _, dup := s.byID[r.ID]; dup {
			continue
		}
		s.byID[r.ID] = len(s.restaurants)
		s.restaurants = append(s.restaurants, r)
	}
	return s
}

// Load reads a JSON array or YAML sequence of restaurants from path.
// A missing or malformed file yields an empty, usable store together with the error.
func Load(ctx context.Context, path string) (*Store, error) {
	logger := log.With().Str("component", "catalog").Str("path", path).Logger()

	if err := ctx.Err(); err != nil {
		return NewStore(nil), err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Msg("restaurant catalog unavailable, starting empty")
		return NewStore(nil), errs.Mark(errs.Wrapf(err, "read restaurant catalog %s", path), contractx.ErrPersistence)
	}

	records, err := decode(path, raw)
	if err != nil {
		logger.Warn().Err(err).Msg("restaurant catalog malformed, starting empty")
		return NewStore(nil), errs.Mark(errs.Wrapf(err, "decode restaurant catalog %s", path), contractx.ErrPersistence)
	}

	restaurants := make([]Restaurant, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		r, err := NewRestaurant(rec)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping invalid restaurant record")
			continue
		}
		if _, dup := seen[r.ID]; dup {
			logger.Warn().Str("restaurant_id", r.ID).Msg("skipping duplicate restaurant id")
			continue
		}
		seen[r.ID] = struct{}{}
		restaurants = append(restaurants, r)
	}

	logger.Info().Int("count", len(restaurants)).Msg("restaurant catalog loaded")
	return NewStore(restaurants), nil
}

func decode(path string, raw []byte) ([]Record, error) {
	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
	case ".json", "":
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	return records, nil
}

// All returns the restaurants in catalog order.
func (s *Store) All() []Restaurant {
	out := make([]Restaurant, len(s.restaurants))
	copy(out, s.restaurants)
	return out
}

func (s *Store) FindByID(id string) (Restaurant, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Restaurant{}, false
	}
	return s.restaurants[idx], true
}

func (s *Store) Len() int {
	return len(s.restaurants)
}

type Criteria struct {
	Cuisine    string
	Location   string
	Features   []string
	PriceRange string
	MinRating  *float64
	// Limit caps the result when positive.
	Limit int
}

func (c Criteria) matches(r Restaurant) bool {
	if c.Cuisine != "" && !containsFold(r.CuisineType, c.Cuisine) {
		return false
	}
	if c.Location != "" && !containsFold(r.Location, c.Location) {
		return false
	}
	for _, f := range c.Features {
		if !r.HasFeature(f) {
			return false
		}
	}
	if c.PriceRange != "" && c.PriceRange != r.PriceRange {
		return false
	}
	if c.MinRating != nil && r.Rating < *c.MinRating {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Search filters the catalog and orders matches by rating, best first.
// Restaurants with equal ratings keep catalog order.
func (s *Store) Search(c Criteria) []Restaurant {
	out := make([]Restaurant, 0)
	for _, r := range s.restaurants {
		if c.matches(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})

	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out
}
