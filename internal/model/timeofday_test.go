package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: TimeOfDay{Hour: 9}},
		{in: "21:30:15", want: TimeOfDay{Hour: 21, Minute: 30, Second: 15}},
		{in: " 07:05 ", want: TimeOfDay{Hour: 7, Minute: 5}},
		{in: "08:15:00.000000", want: TimeOfDay{Hour: 8, Minute: 15}},
		{in: "25:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_Scan(t *testing.T) {
	var tod TimeOfDay

	require.NoError(t, tod.Scan("09:15:00"))
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 15}, tod)

	require.NoError(t, tod.Scan([]byte("10:20:30")))
	assert.Equal(t, TimeOfDay{Hour: 10, Minute: 20, Second: 30}, tod)

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 11, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeOfDay{Hour: 11, Minute: 45}, tod)

	assert.Error(t, tod.Scan(nil))
	assert.Error(t, tod.Scan(42))
}

func TestTimeOfDay_ValueAndJSON(t *testing.T) {
	tod := TimeOfDay{Hour: 9, Minute: 5}

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", v)

	data, err := json.Marshal(tod)
	require.NoError(t, err)
	assert.JSONEq(t, `"09:05:00"`, string(data))

	var decoded TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"18:40"`), &decoded))
	assert.Equal(t, TimeOfDay{Hour: 18, Minute: 40}, decoded)

	assert.Error(t, json.Unmarshal([]byte(`1840`), &decoded))
}

func TestTimeOfDay_Matches(t *testing.T) {
	tod := TimeOfDay{Hour: 9, Minute: 0, Second: 30}

	assert.True(t, tod.Matches(time.Date(2024, 5, 1, 9, 0, 59, 0, time.UTC)))
	assert.False(t, tod.Matches(time.Date(2024, 5, 1, 9, 1, 0, 0, time.UTC)))
	assert.False(t, tod.Matches(time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC)))
}
