package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"StalkPull/internal/forecast"
)

var (
	flagLastWeek string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "turnips BASE_PRICE [PRICE ...]",
	Short: "Estimate which weekly turnip price pattern an island is on",
	Long: `Estimate which weekly price pattern an island is on from the Sunday
base price and the half-day sell prices observed so far. Prices run
Monday AM through Saturday PM; pass ? (or .) for a half-day nobody
checked.`,
	Args:          cobra.RangeArgs(1, 1+forecast.MaxObservations),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runForecast,
}

func init() {
	rootCmd.Flags().StringVar(&flagLastWeek, "last-week", "",
		"last week's pattern (decreasing, random, smallspike, largespike)")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false,
		"print the distribution as JSON")
}

func runForecast(cmd *cobra.Command, args []string) error {
	req, err := parseRequest(args, flagLastWeek)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}

	dist, err := forecast.New().Compute(req)
	switch {
	case errors.Is(err, forecast.ErrInconsistent):
		fmt.Fprintln(cmd.ErrOrStderr(),
			"The prices you entered did not match any known pattern. Check them for typos.")
		return err
	case err != nil:
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}

	if flagJSON {
		return printJSON(cmd, dist)
	}
	printAnalysis(cmd, dist)
	return nil
}

// parseRequest turns the positional arguments into an engine request:
// the base price first, then up to twelve half-day prices.
func parseRequest(args []string, lastWeek string) (forecast.Request, error) {
	prev, err := forecast.ParsePattern(lastWeek)
	if err != nil {
		return forecast.Request{}, err
	}

	base, err := strconv.Atoi(args[0])
	if err != nil {
		return forecast.Request{}, fmt.Errorf("base price %q is not a number", args[0])
	}

	prices := make([]forecast.Observation, 0, len(args)-1)
	for _, arg := range args[1:] {
		if arg == "?" || arg == "." {
			prices = append(prices, forecast.Missing())
			continue
		}
		p, err := strconv.Atoi(arg)
		if err != nil {
			return forecast.Request{}, fmt.Errorf("price %q is not a number (use ? for an unknown half-day)", arg)
		}
		prices = append(prices, forecast.Price(p))
	}

	return forecast.Request{BasePrice: base, Prices: prices, LastWeek: prev}, nil
}

func printAnalysis(cmd *cobra.Command, dist forecast.Distribution) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Analysis:")
	for _, c := range dist {
		pct := int(math.Round(c.Probability * 100))
		if pct == 0 {
			continue
		}
		fmt.Fprintf(out, "%s: %d%%\n", c.Pattern.Label(), pct)
	}
}

func printJSON(cmd *cobra.Command, dist forecast.Distribution) error {
	type chance struct {
		Pattern     string  `json:"pattern"`
		Probability float64 `json:"probability"`
	}
	chances := make([]chance, 0, len(dist))
	for _, c := range dist {
		chances = append(chances, chance{Pattern: c.Pattern.String(), Probability: c.Probability})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chances)
}
