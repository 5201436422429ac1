package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/catalog"
)

var (
	seedCount  int
	seedRandom uint64
	seedOut    string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a sample restaurant catalog",
	RunE: func(_ *cobra.Command, _ []string) error {
		if seedCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}

		restaurants := catalog.Generate(rand.New(rand.NewPCG(seedRandom, seedRandom^0x9e3779b97f4a7c15)), seedCount)
		records := make([]catalog.Record, 0, len(restaurants))
		for _, r := range restaurants {
			records = append(records, r.Record())
		}

		var (
			raw []byte
			err error
		)
		switch strings.ToLower(filepath.Ext(seedOut)) {
		case ".yaml", ".yml":
			raw, err = yaml.Marshal(records)
		default:
			raw, err = json.MarshalIndent(records, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}

		if dir := filepath.Dir(seedOut); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(seedOut, raw, 0o644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}

		log.Info().Int("count", len(records)).Str("path", seedOut).Msg("sample catalog written")
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 50, "Number of restaurants to generate")
	seedCmd.Flags().Uint64Var(&seedRandom, "seed", 42, "Random seed")
	seedCmd.Flags().StringVarP(&seedOut, "out", "o", "data/restaurants.json", "Output file (.json, .yaml or .yml)")
}
