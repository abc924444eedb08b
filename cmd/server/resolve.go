package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nutrisnap/backend/config"
	"github.com/nutrisnap/backend/internal/domain"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [food] [quantity]",
	Short: "Resolve the nutrient breakdown of a food",
	Long: `Looks up quantity grams (default 100) of a food through Nutritionix, falling
back to the local table, and prints the record as JSON.`,
	Example: `  nutrisnap resolve Steak 200
  nutrisnap resolve pizza`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	label, ok := domain.ParseFoodLabel(args[0])
	if !ok {
		label = domain.FoodLabel(args[0])
	}

	var quantity string
	if len(args) > 1 {
		quantity = args[1]
	}

	resolver, closeCache := newResolver(cfg, newNutritionClient(cfg))
	defer closeCache()

	record := resolver.Resolve(context.Background(), label, quantity)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
