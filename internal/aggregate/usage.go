package aggregate

import (
	"context"
	"log/slog"
	"time"

	"teltrip/internal/ocs"
)

// dataQuantityType is the quantityPerType key for data traffic in the
// subscriberUsageOverPeriod totals.
const dataQuantityType = "33"

// windowConcurrency bounds the concurrent per-window usage queries issued
// for a single subscriber.
const windowConcurrency = 6

// UsageSums are the cumulative totals across all usage windows since
// RangeStartYMD: data bytes and reseller cost.
type UsageSums struct {
	Bytes        float64
	ResellerCost float64
}

// UsageAggregator computes cumulative usage and reseller cost over the
// sliding set of weekly windows since the fixed range start.
type UsageAggregator struct {
	caller ocs.Caller
	logger *slog.Logger
	now    func() time.Time
}

// NewUsageAggregator creates a UsageAggregator.
func NewUsageAggregator(caller ocs.Caller, logger *slog.Logger) *UsageAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageAggregator{
		caller: caller,
		logger: logger,
		now:    time.Now,
	}
}

// windowUsage is the per-window extraction result; both values are nil when
// absent from the response.
type windowUsage struct {
	bytes        *float64
	resellerCost *float64
}

// Aggregate queries every weekly window from RangeStartYMD through today
// (UTC) at bounded concurrency and sums the finite byte counts and reseller
// costs. A failed or malformed window contributes zero to the sums and does
// not abort the aggregation.
func (u *UsageAggregator) Aggregate(ctx context.Context, subscriberID int64) (UsageSums, error) {
	today := u.now().UTC().Format(ymdLayout)
	windows, err := WeekWindows(RangeStartYMD, today)
	if err != nil {
		return UsageSums{}, err
	}

	results, err := MapBounded(ctx, windows, windowConcurrency, func(ctx context.Context, _ int, w Window) (windowUsage, error) {
		usage, fetchErr := u.fetchWindow(ctx, subscriberID, w)
		if fetchErr != nil {
			u.logger.WarnContext(ctx, "usage window query failed",
				"subscriber_id", subscriberID,
				"window_start", w.Start,
				"window_end", w.End,
				"error", fetchErr,
			)
			return windowUsage{}, nil
		}
		return usage, nil
	})
	if err != nil {
		// Only context cancellation reaches here; window failures are
		// absorbed above.
		return UsageSums{}, err
	}

	var sums UsageSums
	for _, r := range results {
		if r.bytes != nil {
			sums.Bytes += *r.bytes
		}
		if r.resellerCost != nil {
			sums.ResellerCost += *r.resellerCost
		}
	}
	return sums, nil
}

// fetchWindow queries usage totals for one window and extracts the data-type
// byte count and reseller cost from the total-usage structure.
func (u *UsageAggregator) fetchWindow(ctx context.Context, subscriberID int64, w Window) (windowUsage, error) {
	resp, err := u.caller.Call(ctx, ocs.SubscriberUsageOverPeriod(subscriberID, w.Start, w.End))
	if err != nil {
		return windowUsage{}, err
	}

	total := asMap(dig(resp, "subscriberUsageOverPeriod", "total"))
	return windowUsage{
		bytes:        numberPtr(dig(total, "quantityPerType", dataQuantityType)),
		resellerCost: numberPtr(total["resellerCost"]),
	}, nil
}
