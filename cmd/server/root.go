package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nutrisnap",
	Short: "NutriSnap food diary backend",
	Long: `NutriSnap classifies food photos, resolves nutrient breakdowns through
Nutritionix with a local fallback table, and keeps a per-user food diary
with daily and monthly totals.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}
