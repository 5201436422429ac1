package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/config"
	groqx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/groq"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the chat models the configured provider offers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configx.New[groqx.Config]("GROQ")
		if err != nil {
			return fmt.Errorf("load groq config: %w", err)
		}
		ids, err := groqx.ListModels(cmd.Context(), groqx.NewClient(*cfg))
		if err != nil {
			return err
		}
		for _, id := range ids {
			marker := " "
			if id == cfg.Model {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, id)
		}
		return nil
	},
}
