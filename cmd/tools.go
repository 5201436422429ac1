package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the JSON schema of every tool",
	RunE: func(cmd *cobra.Command, _ []string) error {
		core, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()
		return writeJSON(core.registry.JSONSchemas())
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool> [json-args]",
	Short: "Run a tool directly without the LLM",
	Example: `  goodfoods invoke search_restaurants '{"cuisine":"Italian","limit":3}'
  goodfoods invoke cancel_reservation '{"customer_email":"jane@example.com"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{}
		if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}

		core, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer core.Close()

		res := core.registry.Invoke(cmd.Context(), args[0], params)
		if err := writeJSON(res); err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("%s failed (%s)", res.Tool, res.ErrorKind)
		}
		return nil
	},
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
