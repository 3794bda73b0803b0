package aggregate

import (
	"context"
	"log/slog"
	"sort"

	"teltrip/internal/ocs"
	"teltrip/internal/types"
)

// PackageResolver selects a subscriber's most recently activated prepaid
// package and extracts its template linkage, validity window, data counters,
// and the package-level one-time cost fallback.
type PackageResolver struct {
	caller ocs.Caller
	logger *slog.Logger
}

// NewPackageResolver creates a PackageResolver.
func NewPackageResolver(caller ocs.Caller, logger *slog.Logger) *PackageResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PackageResolver{caller: caller, logger: logger}
}

// ResolveLatest fetches all prepaid packages of the subscriber and returns
// the one with the latest tsactivationutc, or nil when the subscriber has no
// packages. Packages without an activation timestamp sort first (epoch), and
// the sort is stable so upstream list order breaks ties.
func (r *PackageResolver) ResolveLatest(ctx context.Context, subscriberID int64) (*types.PackageInfo, error) {
	resp, err := r.caller.Call(ctx, ocs.ListSubscriberPrepaidPackages(subscriberID))
	if err != nil {
		return nil, err
	}

	pkgs := asList(dig(resp, "listSubscriberPrepaidPackages", "packages"))
	if len(pkgs) == 0 {
		return nil, nil
	}

	sorted := make([]any, len(pkgs))
	copy(sorted, pkgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := parseTimestamp(dig(asMap(sorted[i]), "tsactivationutc"))
		tj := parseTimestamp(dig(asMap(sorted[j]), "tsactivationutc"))
		return ti.Before(tj)
	})

	latest := asMap(sorted[len(sorted)-1])
	tpl := asMap(latest["packageTemplate"])

	info := &types.PackageInfo{
		ActivationUTC:    textPtr(latest["tsactivationutc"]),
		ExpirationUTC:    textPtr(latest["tsexpirationutc"]),
		PackageDataBytes: numberPtr(latest["pckdatabyte"]),
		UsedDataBytes:    numberPtr(latest["useddatabyte"]),
		OneTimeCost:      packageOneTimeCost(latest),
	}

	// The template object appears under two alternate field-naming schemes.
	for _, key := range []string{"prepaidpackagetemplatename", "name"} {
		if s, ok := asText(tpl[key]); ok {
			info.TemplateName = &s
			break
		}
	}
	for _, key := range []string{"prepaidpackagetemplateid", "id"} {
		if id, ok := asID(tpl[key]); ok {
			info.TemplateID = &id
			break
		}
	}

	return info, nil
}

// packageOneTimeCost probes, in order, cost, oneTimePrice, activationFee,
// and price.value; the first plain JSON number wins. No string coercion is
// applied here: the package-level fields are documented numerics.
func packageOneTimeCost(pkg map[string]any) *float64 {
	for _, key := range []string{"cost", "oneTimePrice", "activationFee"} {
		if n := numberPtr(pkg[key]); n != nil {
			return n
		}
	}
	return numberPtr(dig(pkg, "price", "value"))
}
