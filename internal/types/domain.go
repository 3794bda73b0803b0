// Package types defines the shared domain model, error taxonomy, and
// context plumbing for the Teltrip reporting service.
//
// All entities here are transient: they are built per request from the
// upstream OCS responses and never persisted. Nullable upstream values are
// modeled as pointers so that JSON output distinguishes null from zero.
package types

// Account identifies a reseller account in the OCS. Supplied by the caller
// (query parameter or configured default) and listed via the accounts endpoint.
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubscriberRow is the working row for one subscriber during aggregation.
// It carries the identity fields extracted from the account listing plus the
// enrichment fields filled in by the package, template-cost, and usage steps.
// Enrichment failures leave the corresponding fields nil; the row survives.
type SubscriberRow struct {
	SubscriberID int64

	ICCID            *string
	IMSI             *string
	PhoneNumber      *string
	ActivationDate   *string
	LastUsageDate    *string
	SubscriberStatus *string
	SIMStatus        *string
	ESIM             *bool
	SMDPServer       *string
	ActivationCode   *string
	Prepaid          *bool
	Balance          *float64
	LastMCC          *string
	LastMNC          *string

	// Latest prepaid package, if any.
	TemplateID       *int64
	TemplateName     *string
	ActivationUTC    *string
	ExpirationUTC    *string
	PackageDataBytes *float64
	UsedDataBytes    *float64

	// Resolved one-time cost: template cost preferred, package cost fallback.
	OneTimeCost *float64

	// Totals across the weekly usage windows since the range start.
	TotalBytes   *float64
	ResellerCost *float64
}

// AggregatedRow is the minimal nine-field projection returned to the
// presentation and export collaborators. Field order and JSON key names are a
// compatibility contract for the CSV/Excel columns; every key is always
// present, null where unresolved.
type AggregatedRow struct {
	ICCID         *string  `json:"iccid"`
	LastUsageDate *string  `json:"lastUsageDate"`
	TemplateName  *string  `json:"prepaidpackagetemplatename"`
	Cost          *float64 `json:"cost"`
	PackageBytes  *float64 `json:"pckdatabyte"`
	UsedBytes     *float64 `json:"useddatabyte"`
	ActivationUTC *string  `json:"tsactivationutc"`
	ExpirationUTC *string  `json:"tsexpirationutc"`
	ResellerCost  *float64 `json:"resellerCost"`
}

// Project slims a SubscriberRow down to the nine-field output schema.
func (r *SubscriberRow) Project() AggregatedRow {
	return AggregatedRow{
		ICCID:         r.ICCID,
		LastUsageDate: r.LastUsageDate,
		TemplateName:  r.TemplateName,
		Cost:          r.OneTimeCost,
		PackageBytes:  r.PackageDataBytes,
		UsedBytes:     r.UsedDataBytes,
		ActivationUTC: r.ActivationUTC,
		ExpirationUTC: r.ExpirationUTC,
		ResellerCost:  r.ResellerCost,
	}
}

// PackageInfo describes the most recently activated prepaid package of a
// subscriber, as selected by the package resolver.
type PackageInfo struct {
	TemplateID       *int64
	TemplateName     *string
	ActivationUTC    *string
	ExpirationUTC    *string
	PackageDataBytes *float64
	UsedDataBytes    *float64
	// OneTimeCost is the package-level fallback charge, used when the
	// template cost resolves to null or zero.
	OneTimeCost *float64
}

// TemplateCost is the best-effort monetary cost resolved for a prepaid
// package template. Cached process-wide per template ID.
type TemplateCost struct {
	Cost     *float64
	Currency *string
	Name     *string
}

// Totals are the report-level sums displayed by the dashboard header:
// total subscriber cost, total reseller cost, and their difference (PNL).
type Totals struct {
	TotalCost     float64 `json:"totalCost"`
	TotalReseller float64 `json:"totalResellerCost"`
	PNL           float64 `json:"pnl"`
}

// ComputeTotals sums the finite cost fields across rows. Nil values
// contribute zero, mirroring the dashboard's summary arithmetic.
func ComputeTotals(rows []AggregatedRow) Totals {
	var t Totals
	for _, r := range rows {
		if r.Cost != nil {
			t.TotalCost += *r.Cost
		}
		if r.ResellerCost != nil {
			t.TotalReseller += *r.ResellerCost
		}
	}
	t.PNL = t.TotalCost - t.TotalReseller
	return t
}
