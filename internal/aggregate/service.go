// Package aggregate implements the data-aggregation core of the Teltrip
// reporting service: it fans out over the OCS at bounded concurrency to list
// subscribers, resolve their prepaid packages and template costs, and sum
// usage across weekly windows, merging everything into the nine-field report
// row.
package aggregate

import (
	"context"
	"log/slog"
	"sort"

	"teltrip/internal/ocs"
	"teltrip/internal/types"
)

// subscriberConcurrency bounds the concurrent per-subscriber enrichment
// pipelines. Window queries inside each pipeline are bounded independently,
// so real upstream concurrency can multiply across the two layers.
const subscriberConcurrency = 6

// Service is the aggregation orchestrator exposed to the HTTP layer.
type Service struct {
	caller           ocs.Caller
	templates        *TemplateResolver
	packages         *PackageResolver
	usage            *UsageAggregator
	defaultAccountID int64
	logger           *slog.Logger
}

// NewService wires the orchestrator and its resolvers around a shared OCS
// caller and template-cost cache. defaultAccountID may be zero, in which
// case every aggregation call must name an account explicitly.
func NewService(caller ocs.Caller, cache *TemplateCostCache, defaultAccountID int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		caller:           caller,
		templates:        NewTemplateResolver(caller, cache, logger),
		packages:         NewPackageResolver(caller, logger),
		usage:            NewUsageAggregator(caller, logger),
		defaultAccountID: defaultAccountID,
		logger:           logger,
	}
}

// AggregateAccount lists the subscribers of the account and returns one
// nine-field row per subscriber. Per-subscriber enrichment failures degrade
// the row to nulls; only a failed subscriber listing aborts the whole call.
//
// accountID zero (or negative) falls back to the configured default; if no
// usable account remains, the call fails with a validation error.
func (s *Service) AggregateAccount(ctx context.Context, accountID int64) ([]types.AggregatedRow, error) {
	if accountID <= 0 {
		accountID = s.defaultAccountID
	}
	if accountID <= 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidAccount,
			"provide accountId (env OCS_ACCOUNT_ID or ?accountId=)",
			nil,
		)
	}

	resp, err := s.caller.Call(ctx, ocs.ListSubscriber(accountID))
	if err != nil {
		return nil, err
	}

	subscribers := asList(dig(resp, "listSubscriber", "subscriberList"))
	rows := make([]*types.SubscriberRow, len(subscribers))
	for i, raw := range subscribers {
		rows[i] = buildBaseRow(asMap(raw))
	}

	if _, err := MapBounded(ctx, rows, subscriberConcurrency, s.enrich); err != nil {
		return nil, err
	}

	out := make([]types.AggregatedRow, len(rows))
	for i, r := range rows {
		out[i] = r.Project()
	}
	return out, nil
}

// enrich runs the three per-subscriber steps. Each step is independently
// failure-isolated: a failed package fetch, template lookup, or usage
// aggregation leaves its fields nil instead of discarding the row.
func (s *Service) enrich(ctx context.Context, _ int, row *types.SubscriberRow) (struct{}, error) {
	if row.SubscriberID == 0 {
		return struct{}{}, nil
	}

	var packageCost *float64
	pkg, err := s.packages.ResolveLatest(ctx, row.SubscriberID)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "package resolution failed",
			"subscriber_id", row.SubscriberID, "error", err)
	case pkg != nil:
		row.TemplateID = pkg.TemplateID
		row.TemplateName = pkg.TemplateName
		row.ActivationUTC = pkg.ActivationUTC
		row.ExpirationUTC = pkg.ExpirationUTC
		row.PackageDataBytes = pkg.PackageDataBytes
		row.UsedDataBytes = pkg.UsedDataBytes
		packageCost = pkg.OneTimeCost
	}

	if row.TemplateID != nil {
		tpl, tplErr := s.templates.ResolveCost(ctx, *row.TemplateID)
		if tplErr != nil {
			s.logger.WarnContext(ctx, "template cost resolution failed",
				"subscriber_id", row.SubscriberID, "template_id", *row.TemplateID, "error", tplErr)
		} else if tpl != nil {
			if tpl.Cost != nil {
				row.OneTimeCost = tpl.Cost
			}
			if tpl.Name != nil && row.TemplateName == nil {
				row.TemplateName = tpl.Name
			}
		}
	}

	// Fall back to the package one-time fee when the template cost is
	// missing or zero.
	if (row.OneTimeCost == nil || *row.OneTimeCost == 0) && packageCost != nil {
		row.OneTimeCost = packageCost
	}

	sums, usageErr := s.usage.Aggregate(ctx, row.SubscriberID)
	if usageErr != nil {
		s.logger.WarnContext(ctx, "usage aggregation failed",
			"subscriber_id", row.SubscriberID, "error", usageErr)
	} else {
		row.TotalBytes = &sums.Bytes
		row.ResellerCost = &sums.ResellerCost
	}

	return struct{}{}, nil
}

// ListAccounts lists the reseller accounts visible to the configured token,
// for the dashboard's account selector.
func (s *Service) ListAccounts(ctx context.Context) ([]types.Account, error) {
	resp, err := s.caller.Call(ctx, ocs.ListAccount())
	if err != nil {
		return nil, err
	}

	var raw []any
	for _, path := range [][]string{
		{"listAccountRsp", "account"},
		{"listAccount", "accountList"},
		{"listAccount", "accounts"},
		{"accounts"},
	} {
		if list := asList(dig(resp, path...)); len(list) > 0 {
			raw = list
			break
		}
	}

	accounts := make([]types.Account, 0, len(raw))
	for _, item := range raw {
		m := asMap(item)
		var acc types.Account
		for _, key := range []string{"accountId", "id"} {
			if id, ok := asID(m[key]); ok {
				acc.ID = id
				break
			}
		}
		for _, key := range []string{"accountName", "name"} {
			if name, ok := asText(m[key]); ok {
				acc.Name = name
				break
			}
		}
		if acc.ID != 0 {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

// buildBaseRow extracts the identity and status fields for one subscriber
// from the account listing entry.
func buildBaseRow(sub map[string]any) *types.SubscriberRow {
	row := &types.SubscriberRow{}
	if sub == nil {
		return row
	}

	if id, ok := asID(sub["subscriberId"]); ok {
		row.SubscriberID = id
	}

	if imsiList := asList(sub["imsiList"]); len(imsiList) > 0 {
		first := asMap(imsiList[0])
		row.IMSI = textPtr(first["imsi"])
		row.ICCID = textPtr(first["iccid"])
	}
	if row.ICCID == nil {
		row.ICCID = textPtr(dig(sub, "sim", "iccid"))
	}

	if phones := asList(sub["phoneNumberList"]); len(phones) > 0 {
		row.PhoneNumber = textPtr(dig(asMap(phones[0]), "phoneNumber"))
	}

	row.ActivationDate = textPtr(sub["activationDate"])
	row.LastUsageDate = textPtr(sub["lastUsageDate"])
	row.SubscriberStatus = latestStatus(asList(sub["status"]))
	row.SIMStatus = textPtr(dig(sub, "sim", "status"))
	row.ESIM = boolPtr(dig(sub, "sim", "esim"))
	row.SMDPServer = textPtr(dig(sub, "sim", "smdpServer"))
	row.ActivationCode = textPtr(dig(sub, "sim", "activationCode"))
	row.Prepaid = boolPtr(sub["prepaid"])
	row.Balance = numberPtr(sub["balance"])
	row.LastMCC = textPtr(sub["lastMcc"])
	row.LastMNC = textPtr(sub["lastMnc"])

	return row
}

// latestStatus picks the status entry with the greatest startDate from the
// subscriber's status history. Stable sort: ties keep upstream order.
func latestStatus(history []any) *string {
	if len(history) == 0 {
		return nil
	}
	sorted := make([]any, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := parseTimestamp(dig(asMap(sorted[i]), "startDate"))
		tj := parseTimestamp(dig(asMap(sorted[j]), "startDate"))
		return ti.Before(tj)
	})
	return textPtr(dig(asMap(sorted[len(sorted)-1]), "status"))
}
