// internal/portfolio/aggregator.go
package portfolio

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Aggregator reduces position snapshots into a portfolio summary. It is
// pure: no I/O, same input same output.
type Aggregator struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewAggregator builds an aggregator. A nil clock defaults to time.Now.
func NewAggregator(clock func() time.Time, logger *zap.Logger) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{now: clock, logger: logger.Named("aggregator")}
}

// Summarize computes the portfolio summary for a set of positions. An empty
// input or an internal panic yields the zero-value summary; a dashboard read
// must never fail outright.
func (a *Aggregator) Summarize(positions []Position) (summary Summary) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("summary computation panicked, degrading to zero summary",
				zap.Any("panic", r))
			summary = Summary{}
		}
	}()

	if len(positions) == 0 {
		return Summary{}
	}

	var (
		totalValue, totalPnl, totalInitial, totalFees float64
		weightedAPY                                   float64
		inRange, outOfRange                           int
		highRisk, mediumRisk                          int
		largest                                       float64
		earliest                                      time.Time
	)

	tokens := make(map[string]struct{})

	for _, pos := range positions {
		totalValue += pos.CurrentValueUSD
		totalPnl += pos.PnlUSD
		totalInitial += pos.InitialValueUSD
		totalFees += pos.TotalFeesUSD
		weightedAPY += pos.APY * pos.CurrentValueUSD

		if pos.InRange {
			inRange++
		} else {
			outOfRange++
		}
		switch pos.RiskLevel {
		case RiskHigh:
			highRisk++
		case RiskMedium:
			mediumRisk++
		}
		if pos.CurrentValueUSD > largest {
			largest = pos.CurrentValueUSD
		}

		tokens[pos.TokenXSymbol] = struct{}{}
		tokens[pos.TokenYSymbol] = struct{}{}

		opened := pos.LastUpdated
		if pos.Metadata.CreatedAt != nil {
			opened = *pos.Metadata.CreatedAt
		}
		if earliest.IsZero() || opened.Before(earliest) {
			earliest = opened
		}
	}

	count := len(positions)

	summary = Summary{
		TotalValueUSD:       totalValue,
		TotalPnlUSD:         totalPnl,
		TotalFeesUSD:        totalFees,
		ActivePositions:     count,
		InRangePositions:    inRange,
		OutOfRangePositions: outOfRange,
	}
	if totalInitial > 0 {
		summary.TotalPnlPercentage = totalPnl / totalInitial * 100
	}
	if totalValue > 0 {
		summary.AverageAPY = weightedAPY / totalValue
	}

	// Performer ranking: descending by P&L percent, stable so ties keep
	// input order.
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return positions[order[i]].PnlPercentage > positions[order[j]].PnlPercentage
	})
	summary.TopPerformer = positions[order[0]].ID
	summary.WorstPerformer = positions[order[count-1]].ID

	summary.RiskScore = riskScore(positions, totalValue, largest, outOfRange, highRisk, mediumRisk)

	summary.Metrics = SummaryMetrics{
		DiversificationScore: diversificationScore(len(tokens), count),
		AveragePositionSize:  totalValue / float64(count),
		LargestPositionSize:  largest,
		VolatilityScore:      volatilityScore(positions),
		UniqueTokens:         len(tokens),
		PortfolioAgeDays:     a.now().Sub(earliest).Hours() / 24,
	}

	return summary
}

// riskScore combines concentration, range status and per-position risk
// tiers into a 0-100 index.
func riskScore(positions []Position, totalValue, largest float64, outOfRange, highRisk, mediumRisk int) int {
	count := float64(len(positions))

	var concentration float64
	if totalValue > 0 {
		concentration = largest / totalValue * 50
	}
	outOfRangeRisk := float64(outOfRange) / count * 30
	individualRisk := (10*float64(highRisk) + 5*float64(mediumRisk)) / count

	score := math.Round(concentration + outOfRangeRisk + individualRisk)
	return int(math.Min(100, score))
}

func diversificationScore(uniqueTokens, positionCount int) float64 {
	if positionCount <= 1 {
		return 0
	}
	tokenScore := math.Min(50, float64(uniqueTokens)*10)
	countScore := math.Min(50, float64(positionCount)*5)
	return math.Min(100, tokenScore+countScore)
}

// volatilityScore scales the population standard deviation of per-position
// P&L percentages.
func volatilityScore(positions []Position) float64 {
	if len(positions) <= 1 {
		return 0
	}

	var mean float64
	for _, pos := range positions {
		mean += pos.PnlPercentage
	}
	mean /= float64(len(positions))

	var variance float64
	for _, pos := range positions {
		d := pos.PnlPercentage - mean
		variance += d * d
	}
	variance /= float64(len(positions))

	return math.Min(100, 2*math.Sqrt(variance))
}
