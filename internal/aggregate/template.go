package aggregate

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/singleflight"

	"teltrip/internal/ocs"
	"teltrip/internal/types"
)

// directCostKeys are the template fields probed for a scalar cost value.
// Every key except the generic "cost" gets a preference bump, since the
// named charges are more likely to be the one-time fee.
var directCostKeys = []string{"oneTimePrice", "activationFee", "subscriberCost", "cost", "price", "amount"}

// pricingContainerKeys are the nested holders that may carry pricing line
// items, either as arrays or as scalars.
var pricingContainerKeys = []string{"price", "pricing", "prices", "priceList", "charges"}

// oneTimeKindRe classifies a line item's free-text type/kind/category field
// as a one-time charge.
var oneTimeKindRe = regexp.MustCompile(`(?i)one[_-]?time|onetime|activation|setup|fee`)

// costCandidate is a numeric value extracted from a template response,
// tagged with a preference weight: 2 for line items classified as one-time
// charges, 1 for named scalar fields, 0 otherwise.
type costCandidate struct {
	value  float64
	prefer int
}

// TemplateResolver produces a best-effort one-time cost for a prepaid
// package template, memoized per template ID for the process lifetime.
type TemplateResolver struct {
	caller ocs.Caller
	cache  *TemplateCostCache
	group  singleflight.Group
	logger *slog.Logger
}

// NewTemplateResolver creates a TemplateResolver backed by the given cache.
func NewTemplateResolver(caller ocs.Caller, cache *TemplateCostCache, logger *slog.Logger) *TemplateResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateResolver{
		caller: caller,
		cache:  cache,
		logger: logger,
	}
}

// ResolveCost resolves the cost, currency, and display name for the
// template. A non-positive template ID resolves to nil without calling
// upstream. Concurrent callers for the same ID share a single upstream
// fetch; the result is cached so repeat calls never refetch.
//
// Transport and parse failures during template lookup are swallowed (the
// template is treated as not found); extraction ambiguity yields a nil cost,
// never an error.
func (r *TemplateResolver) ResolveCost(ctx context.Context, templateID int64) (*types.TemplateCost, error) {
	if templateID <= 0 {
		return nil, nil
	}
	if cached, ok := r.cache.Get(templateID); ok {
		return &cached, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(templateID, 10), func() (any, error) {
		if cached, ok := r.cache.Get(templateID); ok {
			return cached, nil
		}
		resolved := r.resolve(ctx, templateID)
		r.cache.Set(templateID, resolved)
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	cost := v.(types.TemplateCost)
	return &cost, nil
}

// resolve performs the two-shape upstream lookup and candidate selection.
func (r *TemplateResolver) resolve(ctx context.Context, templateID int64) types.TemplateCost {
	// Primary: list-by-id, which often carries pricing arrays. The template
	// object arrives either as a singleton array or as a scalar field.
	var tpl map[string]any
	if resp, err := r.caller.Call(ctx, ocs.ListPrepaidPackageTemplate(templateID)); err == nil {
		raw := dig(resp, "listPrepaidPackageTemplateRsp", "prepaidPackageTemplate")
		if list := asList(raw); len(list) > 0 {
			tpl = asMap(list[0])
		} else {
			tpl = asMap(raw)
		}
	} else {
		r.logger.DebugContext(ctx, "template list query failed", "template_id", templateID, "error", err)
	}

	// Fallback: get-by-id, with the same tolerant extraction.
	if tpl == nil {
		if resp, err := r.caller.Call(ctx, ocs.GetPrepaidPackageTemplate(templateID)); err == nil {
			for _, key := range []string{"prepaidPackageTemplate", "prepaidPackageTemplates", "template"} {
				if m := asMap(resp[key]); m != nil {
					tpl = m
					break
				}
			}
		} else {
			r.logger.DebugContext(ctx, "template get query failed", "template_id", templateID, "error", err)
		}
	}

	result := types.TemplateCost{
		Cost: selectCost(extractCandidates(tpl)),
	}
	if tpl != nil {
		for _, key := range []string{"name", "prepaidpackagetemplatename"} {
			if s, ok := asText(tpl[key]); ok {
				result.Name = &s
				break
			}
		}
		for _, key := range []string{"currency", "curr"} {
			if s, ok := asText(tpl[key]); ok {
				result.Currency = &s
				break
			}
		}
	}
	return result
}

// extractCandidates builds the candidate cost list from a template object:
// direct scalar fields first, then nested pricing containers whose array
// items are classified by their free-text kind field.
func extractCandidates(tpl map[string]any) []costCandidate {
	if tpl == nil {
		return nil
	}

	var candidates []costCandidate

	for _, key := range directCostKeys {
		v, present := tpl[key]
		if !present {
			continue
		}
		if n, ok := CoerceNumeric(v); ok {
			prefer := 1
			if key == "cost" {
				prefer = 0
			}
			candidates = append(candidates, costCandidate{value: n, prefer: prefer})
		}
	}

	for _, key := range pricingContainerKeys {
		v := tpl[key]
		if v == nil {
			continue
		}
		items, isList := v.([]any)
		if !isList {
			if n, ok := CoerceNumeric(v); ok {
				candidates = append(candidates, costCandidate{value: n, prefer: 0})
			}
			continue
		}
		for _, rawItem := range items {
			item := asMap(rawItem)
			kind := ""
			for _, kindKey := range []string{"type", "kind", "chargeType", "category"} {
				if s, ok := asText(item[kindKey]); ok {
					kind = s
					break
				}
			}
			prefer := 0
			if oneTimeKindRe.MatchString(kind) {
				prefer = 2
			}

			var value any = rawItem
			if item != nil {
				for _, valueKey := range []string{"price", "value", "amount", "cost"} {
					if inner, present := item[valueKey]; present && inner != nil {
						value = inner
						break
					}
				}
			}
			if n, ok := CoerceNumeric(value); ok {
				candidates = append(candidates, costCandidate{value: n, prefer: prefer})
			}
		}
	}

	return candidates
}

// selectCost applies the selection policy: the smallest positive value among
// preferred (one-time/activation/setup-tagged) candidates, else the smallest
// positive value among all candidates, else zero if any candidate is exactly
// zero, else nil. Picking the smallest positive within a tier deliberately
// favors the most conservative one-time charge when multiple tiers exist.
func selectCost(candidates []costCandidate) *float64 {
	var preferredPositive, anyPositive []float64
	hasZero := false
	for _, c := range candidates {
		switch {
		case c.value > 0 && c.prefer > 0:
			preferredPositive = append(preferredPositive, c.value)
			anyPositive = append(anyPositive, c.value)
		case c.value > 0:
			anyPositive = append(anyPositive, c.value)
		case c.value == 0:
			hasZero = true
		}
	}

	switch {
	case len(preferredPositive) > 0:
		sort.Float64s(preferredPositive)
		return &preferredPositive[0]
	case len(anyPositive) > 0:
		sort.Float64s(anyPositive)
		return &anyPositive[0]
	case hasZero:
		zero := 0.0
		return &zero
	default:
		return nil
	}
}
