package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2025, 2, 14, 8, 5, 0, 0, time.UTC)

	tests := []struct {
		name string
		src  any
	}{
		{"time", want},
		{"rfc3339", "2025-02-14T08:05:00Z"},
		{"sql text", "2025-02-14 08:05:00"},
		{"bytes", []byte("2025-02-14 08:05:00")},
		{"offset", "2025-02-14 16:05:00+08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.Scan(tt.src))
			assert.True(t, ts.Valid)
			assert.True(t, want.Equal(ts.Time), "got %v", ts.Time)
		})
	}

	t.Run("null", func(t *testing.T) {
		ts := Timestamp{Valid: true}
		require.NoError(t, ts.Scan(nil))
		assert.False(t, ts.Valid)
		assert.False(t, ts.Malformed())
	})

	t.Run("unknown layout is kept, not returned as an error", func(t *testing.T) {
		for src, raw := range map[any]string{"14/02/2025": "14/02/2025", "yesterday": "yesterday", 42: "42", "": `""`} {
			var ts Timestamp
			require.NoError(t, ts.Scan(src))
			assert.False(t, ts.Valid)
			assert.True(t, ts.Malformed())
			assert.Equal(t, raw, ts.Raw)
		}
	})

	t.Run("rescan clears a previous raw value", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, ts.Scan("14/02/2025"))
		require.NoError(t, ts.Scan("2025-02-14 08:05:00"))
		assert.True(t, ts.Valid)
		assert.Empty(t, ts.Raw)
	})
}

func TestScore_Scan(t *testing.T) {
	tests := []struct {
		name      string
		src       any
		want      Score
		malformed bool
	}{
		{"int", int64(4), Score{Int64: 4, Valid: true}, false},
		{"whole float", float64(3), Score{Int64: 3, Valid: true}, false},
		{"text", "5", Score{Int64: 5, Valid: true}, false},
		{"bytes", []byte(" 2 "), Score{Int64: 2, Valid: true}, false},
		{"null", nil, Score{}, false},
		{"not a number", "n/a", Score{Raw: "n/a"}, true},
		{"fraction", 4.5, Score{Raw: "4.5"}, true},
		{"empty text", "", Score{Raw: `""`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Score{Int64: 9, Valid: true, Raw: "stale"}
			require.NoError(t, s.Scan(tt.src))
			assert.Equal(t, tt.want, s)
			assert.Equal(t, tt.malformed, s.Malformed())
		})
	}
}
