package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Cents
		wantErr bool
	}{
		{name: "empty is zero", raw: "", want: 0},
		{name: "blank is zero", raw: "   ", want: 0},
		{name: "decimal is major units", raw: "12.5", want: 1250},
		{name: "two decimals", raw: "12.50", want: 1250},
		{name: "integer is cents", raw: "500", want: 500},
		{name: "padded integer", raw: " 500 ", want: 500},
		{name: "rounds to nearest cent", raw: "0.999", want: 100},
		{name: "leading dot", raw: ".5", want: 50},
		{name: "garbage", raw: "abc", wantErr: true},
		{name: "garbage with dot", raw: "1.2.3", wantErr: true},
		{name: "exponent without dot", raw: "1e3", wantErr: true},
		{name: "nan", raw: "nan.", wantErr: true},
		{name: "just above int64", raw: "92233720368547758.08", wantErr: true},
		{name: "rounds up to 2^63", raw: "92233720368547758.07", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "50", want: 50},
		{raw: "50.0", want: 50},
		{raw: "50.9", want: 50},
		{raw: " 7 ", want: 7},
		{raw: "", wantErr: true},
		{raw: "ten", wantErr: true},
		{raw: "inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventDerivedFields(t *testing.T) {
	e := Event{Capacity: 10, TicketsSold: 4, TicketPriceCents: 500}
	assert.Equal(t, 6, e.Available())
	assert.Equal(t, Cents(2000), e.Revenue())

	over := Event{Capacity: 2, TicketsSold: 5}
	assert.Equal(t, 0, over.Available())
}

func TestEventPatchPresence(t *testing.T) {
	var p EventPatch
	require.NoError(t, json.Unmarshal([]byte(`{"capacity": 3, "description": null}`), &p))

	assert.True(t, p.Capacity.Set)
	assert.Equal(t, 3, p.Capacity.Value)
	assert.True(t, p.Description.Set)
	assert.True(t, p.Description.Null)
	assert.False(t, p.Title.Set)
	assert.False(t, p.Date.Set)
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 5, 1)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-05-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	require.Error(t, json.Unmarshal([]byte(`"01/05/2024"`), &back))
}
