package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/seed"
)

const defaultSimulateDays = 2

func newSimulateCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		days     int
		seedPath string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Print the inventory day by day",
		Long: `Run the update rules over a stock for a number of days and print the
items after each one, starting with the opening stock as day 0.

Example:
  gildedrose simulate --days 30
  gildedrose simulate --days 5 --seed stock.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("days must not be negative, got %d", days)
			}

			items := seed.Default()
			if seedPath != "" {
				loaded, err := seed.Load(seedPath)
				if err != nil {
					return err
				}
				items = loaded
			}

			log := logger()
			defer func() {
				_ = log.Sync()
			}()
			log.Info("simulation started",
				zap.Int("days", days),
				zap.Int("items", len(items)),
				zap.String("seed", seedPath),
			)

			return simulate(cmd.OutOrStdout(), inventory.New(items), days)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", defaultSimulateDays, "number of days to run")
	cmd.Flags().StringVarP(&seedPath, "seed", "s", "", "YAML seed file (default: built-in stock)")

	return cmd
}

// simulate writes the inventory for day 0 through days.
func simulate(w io.Writer, inv *inventory.Inventory, days int) error {
	for day := 0; day <= days; day++ {
		if day > 0 {
			inv.AdvanceOneDay()
		}
		if err := printDay(w, day, inv.Items()); err != nil {
			return err
		}
	}
	return nil
}

func printDay(w io.Writer, day int, items []*model.Item) error {
	if _, err := fmt.Fprintf(w, "-------- day %d --------\nname, sellIn, quality\n", day); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s, %d, %d\n", item.Name, item.SellIn, item.Quality); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
