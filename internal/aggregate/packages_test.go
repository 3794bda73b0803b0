package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packagesResponse(pkgs ...any) map[string]any {
	return map[string]any{
		"listSubscriberPrepaidPackages": map[string]any{
			"packages": pkgs,
		},
	}
}

func TestResolveLatest_PicksLatestActivation(t *testing.T) {
	caller := &fakeCaller{handler: func(payload map[string]any) (map[string]any, error) {
		require.Equal(t, "listSubscriberPrepaidPackages", op(payload))
		return packagesResponse(
			map[string]any{
				"tsactivationutc": "2025-07-01T00:00:00",
				"packageTemplate": map[string]any{"prepaidpackagetemplateid": 1.0, "prepaidpackagetemplatename": "old"},
			},
			map[string]any{
				"tsactivationutc": "2025-08-15T09:30:00",
				"tsexpirationutc": "2025-09-15T09:30:00",
				"pckdatabyte":     5.0e9,
				"useddatabyte":    1.2e9,
				"packageTemplate": map[string]any{"prepaidpackagetemplateid": 2.0, "prepaidpackagetemplatename": "current"},
			},
			map[string]any{
				"tsactivationutc": "2025-06-10T00:00:00",
				"packageTemplate": map[string]any{"prepaidpackagetemplateid": 3.0, "prepaidpackagetemplatename": "oldest"},
			},
		), nil
	}}

	resolver := NewPackageResolver(caller, nil)
	info, err := resolver.ResolveLatest(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, info)

	require.NotNil(t, info.TemplateID)
	assert.Equal(t, int64(2), *info.TemplateID)
	require.NotNil(t, info.TemplateName)
	assert.Equal(t, "current", *info.TemplateName)
	require.NotNil(t, info.ActivationUTC)
	assert.Equal(t, "2025-08-15T09:30:00", *info.ActivationUTC)
	require.NotNil(t, info.ExpirationUTC)
	assert.Equal(t, "2025-09-15T09:30:00", *info.ExpirationUTC)
	require.NotNil(t, info.PackageDataBytes)
	assert.Equal(t, 5.0e9, *info.PackageDataBytes)
	require.NotNil(t, info.UsedDataBytes)
	assert.Equal(t, 1.2e9, *info.UsedDataBytes)
}

func TestResolveLatest_MissingActivationSortsFirst(t *testing.T) {
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return packagesResponse(
			map[string]any{
				"packageTemplate": map[string]any{"id": 9.0, "name": "undated"},
			},
			map[string]any{
				"tsactivationutc": "2025-06-02T00:00:00",
				"packageTemplate": map[string]any{"id": 4.0, "name": "dated"},
			},
		), nil
	}}

	resolver := NewPackageResolver(caller, nil)
	info, err := resolver.ResolveLatest(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, info)
	require.NotNil(t, info.TemplateID)
	assert.Equal(t, int64(4), *info.TemplateID)
	require.NotNil(t, info.TemplateName)
	assert.Equal(t, "dated", *info.TemplateName)
}

func TestResolveLatest_TieKeepsListOrder(t *testing.T) {
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return packagesResponse(
			map[string]any{"packageTemplate": map[string]any{"id": 1.0}},
			map[string]any{"packageTemplate": map[string]any{"id": 2.0}},
		), nil
	}}

	resolver := NewPackageResolver(caller, nil)
	info, err := resolver.ResolveLatest(context.Background(), 101)
	require.NoError(t, err)
	require.NotNil(t, info)
	// Both undated: the stable sort keeps list order and the last wins.
	require.NotNil(t, info.TemplateID)
	assert.Equal(t, int64(2), *info.TemplateID)
}

func TestResolveLatest_OneTimeCostProbeOrder(t *testing.T) {
	cases := []struct {
		name string
		pkg  map[string]any
		want *float64
	}{
		{
			name: "cost wins first",
			pkg:  map[string]any{"cost": 25.0, "oneTimePrice": 99.0},
			want: ptr(25.0),
		},
		{
			name: "oneTimePrice second",
			pkg:  map[string]any{"oneTimePrice": 12.0, "activationFee": 99.0},
			want: ptr(12.0),
		},
		{
			name: "price.value last",
			pkg:  map[string]any{"price": map[string]any{"value": 8.0}},
			want: ptr(8.0),
		},
		{
			name: "string cost ignored",
			pkg:  map[string]any{"cost": "25"},
			want: nil,
		},
		{
			name: "nothing usable",
			pkg:  map[string]any{},
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := packageOneTimeCost(tc.pkg)
			if tc.want == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tc.want, *got)
			}
		})
	}
}

func TestResolveLatest_NoPackages(t *testing.T) {
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return packagesResponse(), nil
	}}

	resolver := NewPackageResolver(caller, nil)
	info, err := resolver.ResolveLatest(context.Background(), 101)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestResolveLatest_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("gateway down")
	caller := &fakeCaller{handler: func(map[string]any) (map[string]any, error) {
		return nil, boom
	}}

	resolver := NewPackageResolver(caller, nil)
	_, err := resolver.ResolveLatest(context.Background(), 101)
	assert.ErrorIs(t, err, boom)
}

func ptr[T any](v T) *T { return &v }
