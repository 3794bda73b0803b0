package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teltrip/internal/types"
)

// newTestService wires a Service over the fake caller with a fresh cache and
// a fixed clock so window counts are deterministic.
func newTestService(t *testing.T, caller *fakeCaller) *Service {
	t.Helper()
	cache, err := NewTemplateCostCache()
	require.NoError(t, err)
	svc := NewService(caller, cache, 0, discardLogger())
	svc.usage.now = func() time.Time {
		return time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func subscriberListResponse(subs ...any) map[string]any {
	return map[string]any{
		"listSubscriber": map[string]any{"subscriberList": subs},
	}
}

func templateListResponse(tpl map[string]any) map[string]any {
	return map[string]any{
		"listPrepaidPackageTemplateRsp": map[string]any{
			"prepaidPackageTemplate": []any{tpl},
		},
	}
}

func TestAggregateAccount_EnrichesEverySubscriber(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		switch op(payload) {
		case "listSubscriber":
			return subscriberListResponse(
				map[string]any{
					"subscriberId":  101.0,
					"lastUsageDate": "2025-08-20T10:00:00",
					"imsiList":      []any{map[string]any{"imsi": "2460200001", "iccid": "8944538001"}},
				},
				map[string]any{
					"subscriberId": 102.0,
					"sim":          map[string]any{"iccid": "8944538002"},
				},
			), nil
		case "listSubscriberPrepaidPackages":
			return packagesResponse(map[string]any{
				"tsactivationutc": "2025-06-01T00:00:00",
				"tsexpirationutc": "2025-07-01T00:00:00",
				"pckdatabyte":     1.0e9,
				"useddatabyte":    2.5e8,
				"cost":            25.0,
				"packageTemplate": map[string]any{"prepaidpackagetemplateid": 77.0, "prepaidpackagetemplatename": "EU 1GB"},
			}), nil
		case "listPrepaidPackageTemplate":
			return templateListResponse(map[string]any{
				"name":         "EU 1GB",
				"oneTimePrice": 10.0,
			}), nil
		case "subscriberUsageOverPeriod":
			return usageResponse(5.0e8, 3.25), nil
		default:
			return nil, errors.New("unexpected operation " + op(payload))
		}
	}}

	svc := newTestService(t, caller)
	rows, err := svc.AggregateAccount(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	require.NotNil(t, first.ICCID)
	assert.Equal(t, "8944538001", *first.ICCID)
	require.NotNil(t, first.LastUsageDate)
	assert.Equal(t, "2025-08-20T10:00:00", *first.LastUsageDate)
	require.NotNil(t, first.TemplateName)
	assert.Equal(t, "EU 1GB", *first.TemplateName)
	require.NotNil(t, first.Cost)
	assert.Equal(t, 10.0, *first.Cost)
	require.NotNil(t, first.PackageBytes)
	assert.Equal(t, 1.0e9, *first.PackageBytes)
	require.NotNil(t, first.UsedBytes)
	assert.Equal(t, 2.5e8, *first.UsedBytes)
	require.NotNil(t, first.ActivationUTC)
	assert.Equal(t, "2025-06-01T00:00:00", *first.ActivationUTC)
	require.NotNil(t, first.ExpirationUTC)
	assert.Equal(t, "2025-07-01T00:00:00", *first.ExpirationUTC)
	require.NotNil(t, first.ResellerCost)
	assert.Equal(t, 3.25, *first.ResellerCost)

	second := rows[1]
	require.NotNil(t, second.ICCID)
	assert.Equal(t, "8944538002", *second.ICCID)

	// Both subscribers share the template, so the cache collapses the
	// resolution to a single upstream fetch.
	assert.Equal(t, 1, caller.countOp("listPrepaidPackageTemplate"))
}

func TestAggregateAccount_NineKeysAlwaysPresent(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		switch op(payload) {
		case "listSubscriber":
			return subscriberListResponse(map[string]any{"subscriberId": 101.0}), nil
		case "listSubscriberPrepaidPackages":
			return packagesResponse(), nil
		case "subscriberUsageOverPeriod":
			return map[string]any{}, nil
		default:
			return nil, errors.New("unexpected operation " + op(payload))
		}
	}}

	svc := newTestService(t, caller)
	rows, err := svc.AggregateAccount(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	raw, err := json.Marshal(rows[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{
		"iccid", "lastUsageDate", "prepaidpackagetemplatename", "cost",
		"pckdatabyte", "useddatabyte", "tsactivationutc", "tsexpirationutc",
		"resellerCost",
	} {
		v, present := decoded[key]
		assert.True(t, present, "key %s missing from output", key)
		if key == "useddatabyte" || key == "cost" || key == "pckdatabyte" ||
			key == "iccid" || key == "lastUsageDate" || key == "prepaidpackagetemplatename" ||
			key == "tsactivationutc" || key == "tsexpirationutc" {
			assert.Nil(t, v, "key %s should be null", key)
		}
	}
	assert.Len(t, decoded, 9)
}

func TestAggregateAccount_PackageCostFallback(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		switch op(payload) {
		case "listSubscriber":
			return subscriberListResponse(map[string]any{"subscriberId": 101.0}), nil
		case "listSubscriberPrepaidPackages":
			return packagesResponse(map[string]any{
				"tsactivationutc": "2025-06-01T00:00:00",
				"cost":            25.0,
				"packageTemplate": map[string]any{"id": 77.0, "name": "EU 1GB"},
			}), nil
		case "listPrepaidPackageTemplate":
			// Template resolves to a free plan: the package fee wins.
			return templateListResponse(map[string]any{"cost": 0.0}), nil
		case "subscriberUsageOverPeriod":
			return usageResponse(0, 0), nil
		default:
			return nil, errors.New("unexpected operation " + op(payload))
		}
	}}

	svc := newTestService(t, caller)
	rows, err := svc.AggregateAccount(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, 25.0, *rows[0].Cost)
}

func TestAggregateAccount_EnrichmentFailureKeepsRow(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		switch op(payload) {
		case "listSubscriber":
			return subscriberListResponse(map[string]any{
				"subscriberId":  101.0,
				"lastUsageDate": "2025-08-20T10:00:00",
				"sim":           map[string]any{"iccid": "8944538001"},
			}), nil
		default:
			return nil, errors.New("everything else is down")
		}
	}}

	svc := newTestService(t, caller)
	rows, err := svc.AggregateAccount(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.NotNil(t, row.ICCID)
	assert.Equal(t, "8944538001", *row.ICCID)
	assert.Nil(t, row.Cost)
	assert.Nil(t, row.TemplateName)
	// Window failures are absorbed inside the usage step, so the sums land
	// as zeros rather than nulls.
	require.NotNil(t, row.ResellerCost)
	assert.Zero(t, *row.ResellerCost)
}

func TestAggregateAccount_ListingFailureAborts(t *testing.T) {
	boom := errors.New("ocs unreachable")
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return nil, boom
	}}

	svc := newTestService(t, caller)
	_, err := svc.AggregateAccount(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestAggregateAccount_MissingAccountID(t *testing.T) {
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		t.Fatal("no upstream call expected")
		return nil, nil
	}}

	svc := newTestService(t, caller)
	_, err := svc.AggregateAccount(context.Background(), 0)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationInvalidAccount, appErr.Code)
}

func TestAggregateAccount_DefaultAccountID(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		if op(payload) == "listSubscriber" {
			id, _ := dig(payload, "listSubscriber", "accountId").(int64)
			require.Equal(t, int64(42), id)
			return subscriberListResponse(), nil
		}
		return nil, errors.New("unexpected operation")
	}}

	cache, err := NewTemplateCostCache()
	require.NoError(t, err)
	svc := NewService(caller, cache, 42, discardLogger())
	rows, err := svc.AggregateAccount(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListAccounts_AlternateShapes(t *testing.T) {
	shapes := []map[string]any{
		{"listAccountRsp": map[string]any{"account": []any{
			map[string]any{"accountId": 1.0, "accountName": "Carrier A"},
		}}},
		{"listAccount": map[string]any{"accountList": []any{
			map[string]any{"id": 1.0, "name": "Carrier A"},
		}}},
		{"accounts": []any{
			map[string]any{"accountId": 1.0, "name": "Carrier A"},
		}},
	}

	for _, shape := range shapes {
		caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
			return shape, nil
		}}
		svc := newTestService(t, caller)
		accounts, err := svc.ListAccounts(context.Background())
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, types.Account{ID: 1, Name: "Carrier A"}, accounts[0])
	}
}

func TestListAccounts_SkipsEntriesWithoutID(t *testing.T) {
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return map[string]any{"accounts": []any{
			map[string]any{"name": "no id"},
			map[string]any{"accountId": 7.0, "accountName": "kept"},
		}}, nil
	}}

	svc := newTestService(t, caller)
	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(7), accounts[0].ID)
}

func TestBuildBaseRow_Extraction(t *testing.T) {
	row := buildBaseRow(map[string]any{
		"subscriberId": 55.0,
		"imsiList": []any{
			map[string]any{"imsi": "2460200001", "iccid": "8944538001"},
		},
		"phoneNumberList": []any{
			map[string]any{"phoneNumber": "+4912345"},
		},
		"status": []any{
			map[string]any{"status": "SUSPENDED", "startDate": "2025-05-01T00:00:00"},
			map[string]any{"status": "ACTIVE", "startDate": "2025-07-01T00:00:00"},
		},
		"sim": map[string]any{
			"iccid":  "ignored",
			"status": "PRODUCTIVE",
			"esim":   true,
		},
		"prepaid": true,
		"balance": 12.5,
		"lastMcc": "246",
	})

	assert.Equal(t, int64(55), row.SubscriberID)
	require.NotNil(t, row.ICCID)
	assert.Equal(t, "8944538001", *row.ICCID)
	require.NotNil(t, row.PhoneNumber)
	assert.Equal(t, "+4912345", *row.PhoneNumber)
	require.NotNil(t, row.SubscriberStatus)
	assert.Equal(t, "ACTIVE", *row.SubscriberStatus)
	require.NotNil(t, row.SIMStatus)
	assert.Equal(t, "PRODUCTIVE", *row.SIMStatus)
	require.NotNil(t, row.ESIM)
	assert.True(t, *row.ESIM)
	require.NotNil(t, row.Prepaid)
	assert.True(t, *row.Prepaid)
	require.NotNil(t, row.Balance)
	assert.Equal(t, 12.5, *row.Balance)
	require.NotNil(t, row.LastMCC)
	assert.Equal(t, "246", *row.LastMCC)
	assert.Nil(t, row.LastMNC)
}

func TestBuildBaseRow_SIMICCIDFallback(t *testing.T) {
	row := buildBaseRow(map[string]any{
		"subscriberId": 56.0,
		"sim":          map[string]any{"iccid": "8944538099"},
	})
	require.NotNil(t, row.ICCID)
	assert.Equal(t, "8944538099", *row.ICCID)
}
