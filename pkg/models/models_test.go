package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "rfc3339",
			raw:  `"2025-03-01T10:30:00Z"`,
			want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "rfc3339 with offset",
			raw:  `"2025-03-01T10:30:00+02:00"`,
			want: time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "naive datetime treated as utc",
			raw:  `"2025-03-01T10:30:00"`,
			want: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "naive datetime with microseconds",
			raw:  `"2025-03-01T10:30:00.123456"`,
			want: time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, ts.UTC().Equal(tt.want), "got %v want %v", ts.Time, tt.want)
		})
	}
}

func TestTimestampUnmarshalNull(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestTimestampUnmarshalInvalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestTimestampMarshal(t *testing.T) {
	ts := At(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-01T10:30:00Z"`, string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(data))
}

func TestTransactionRoundTrip(t *testing.T) {
	// The messaging service emits naive datetimes for the stage fields.
	raw := `{
		"id": 7,
		"conversation_id": 3,
		"listing_id": 2,
		"buyer_id": 5,
		"amount_cents": 12500,
		"status": "shipped",
		"paid_at": "2025-03-01T09:00:00",
		"shipped_at": "2025-03-02T14:15:00",
		"created_at": "2025-02-28T20:00:00"
	}`

	var txn Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &txn))
	assert.Equal(t, int64(12500), txn.AmountCents)
	require.NotNil(t, txn.PaidAt)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), txn.PaidAt.Time)
	assert.Nil(t, txn.DeliveredAt)
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{125, "$1.25"},
		{10000, "$100.00"},
		{-999, "-$9.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCents(tt.cents))
	}
}

func TestAllPlatforms(t *testing.T) {
	platforms := AllPlatforms()
	assert.Equal(t, []Platform{
		PlatformFacebookMarketplace,
		PlatformEbay,
		PlatformCraigslist,
		PlatformMercari,
	}, platforms)
}
