package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsInputs(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Limit: DefaultLimit}},
		{"negative", Params{Limit: -5, Offset: -3}, Params{Limit: DefaultLimit}},
		{"over max", Params{Limit: 5000}, Params{Limit: MaxLimit}},
		{"in range", Params{Limit: 10, Offset: 20}, Params{Limit: 10, Offset: 20}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}

func TestWindowSlicesAndReportsMore(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := Window(items, Params{Limit: 2, Offset: 0})
	require.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Items[0])
	assert.True(t, page.HasMore)
	assert.Equal(t, 5, page.Total)

	page = Window(items, Params{Limit: 2, Offset: 4})
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5, page.Items[0])
	assert.False(t, page.HasMore)

	page = Window(items, Params{Limit: 2, Offset: 50})
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}
