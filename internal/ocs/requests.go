package ocs

// Request payload builders. The OCS selects the operation by the top-level
// key of the POSTed JSON object; the builders below are the only operations
// this service issues.

// ListAccount builds the payload for listing reseller accounts.
func ListAccount() map[string]any {
	return map[string]any{"listAccount": map[string]any{}}
}

// ListSubscriber builds the payload for listing all subscribers of an account.
func ListSubscriber(accountID int64) map[string]any {
	return map[string]any{
		"listSubscriber": map[string]any{"accountId": accountID},
	}
}

// ListSubscriberPrepaidPackages builds the payload for fetching a
// subscriber's prepaid packages.
func ListSubscriberPrepaidPackages(subscriberID int64) map[string]any {
	return map[string]any{
		"listSubscriberPrepaidPackages": map[string]any{"subscriberId": subscriberID},
	}
}

// SubscriberUsageOverPeriod builds the payload for querying usage totals
// scoped to a subscriber and an inclusive [start, end] date range (YYYY-MM-DD).
func SubscriberUsageOverPeriod(subscriberID int64, start, end string) map[string]any {
	return map[string]any{
		"subscriberUsageOverPeriod": map[string]any{
			"subscriber": map[string]any{"subscriberId": subscriberID},
			"period":     map[string]any{"start": start, "end": end},
		},
	}
}

// ListPrepaidPackageTemplate builds the "list by id" template query, the
// primary shape for template cost resolution (often carries pricing arrays).
func ListPrepaidPackageTemplate(templateID int64) map[string]any {
	return map[string]any{
		"listPrepaidPackageTemplate": map[string]any{"templateId": templateID},
	}
}

// GetPrepaidPackageTemplate builds the "get by id" template query, the
// fallback shape when the list query yields nothing.
func GetPrepaidPackageTemplate(templateID int64) map[string]any {
	return map[string]any{
		"getPrepaidPackageTemplate": map[string]any{"prepaidPackageTemplateId": templateID},
	}
}
