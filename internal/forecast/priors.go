package forecast

// Priors holds P(this week's pattern | last week's pattern): one row per
// conditioning key, columns ordered Decreasing, Random, SmallSpike,
// LargeSpike. Every row sums to 1.
type Priors [5][4]float64

// DefaultPriors returns the datamined pattern transition table. The
// PatternUnknown row is the marginal used when last week's pattern was not
// recorded.
func DefaultPriors() Priors {
	return Priors{
		PatternUnknown: {0.15, 0.35, 0.25, 0.25},
		Decreasing:     {0.05, 0.25, 0.25, 0.45},
		Random:         {0.15, 0.20, 0.35, 0.30},
		SmallSpike:     {0.15, 0.45, 0.15, 0.25},
		LargeSpike:     {0.20, 0.50, 0.25, 0.05},
	}
}
