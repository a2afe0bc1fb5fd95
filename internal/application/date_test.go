package application

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-06-10", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), false},
		{"2024-06-10T23:30:00+05:30", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), false},
		{"2024-06-10T22:00:00-04:00", time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), false},
		{"10/06/2024", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var req CreateBookingRequest
	err := json.Unmarshal([]byte(`{"property_id":3,"check_in_date":"2024-06-10","check_out_date":"2024-06-15T10:00:00Z"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", req.CheckInDate.Format(dateLayout))
	assert.Equal(t, "2024-06-15", req.CheckOutDate.Format(dateLayout))

	out, err := json.Marshal(struct {
		D Date `json:"d"`
	}{MustParseDate("2024-06-10")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-06-10"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"check_in_date":20240610}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"check_in_date":"June"}`), &req))
}
