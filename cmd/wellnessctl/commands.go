package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/service/fallback"
	"wellness-backend/internal/service/recommendation"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [signals.yaml]",
		Short: "Generate ranked recommendations from a signals file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var signals wellness.Signals
			if err := readYAML(args[0], &signals); err != nil {
				return err
			}

			clock, err := clockFlag(cmd)
			if err != nil {
				return err
			}

			engine := recommendation.NewEngine(recommendation.WithClock(clock))
			engine.Apply(&signals)

			return writeJSON(cmd.OutOrStdout(), engine.GenerateRecommendations())
		},
	}

	cmd.Flags().String("at", "", "Evaluate at this RFC3339 time instead of now")

	return cmd
}

func fallbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallback [context.yaml]",
		Short: "Generate rule-based session recommendations from a mood context",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pc wellness.PersonalizationContext
			if len(args) == 1 {
				if err := readYAML(args[0], &pc); err != nil {
					return err
				}
			}

			clock, err := clockFlag(cmd)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), fallback.NewGenerator(clock, nil).Generate(pc))
		},
	}

	cmd.Flags().String("at", "", "Evaluate at this RFC3339 time instead of now")

	return cmd
}

func clockFlag(cmd *cobra.Command) (func() time.Time, error) {
	raw, err := cmd.Flags().GetString("at")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return time.Now, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --at value %q: %w", raw, err)
	}
	return func() time.Time { return at }, nil
}

func readYAML(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
