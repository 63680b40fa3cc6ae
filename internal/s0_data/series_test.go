package s0_data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestCollapseByDate(t *testing.T) {
	tests := []struct {
		name       string
		rows       []rawClose
		wantCloses []float64
		wantValid  []bool
	}{
		{
			name:       "one row per day",
			rows:       []rawClose{{day(1), ptr(10)}, {day(2), ptr(11)}},
			wantCloses: []float64{10, 11},
			wantValid:  []bool{true, true},
		},
		{
			name:       "latest collected close wins",
			rows:       []rawClose{{day(1), ptr(10)}, {day(1), ptr(10.5)}, {day(2), ptr(11)}},
			wantCloses: []float64{10.5, 11},
			wantValid:  []bool{true, true},
		},
		{
			name:       "later null does not erase earlier close",
			rows:       []rawClose{{day(1), ptr(10)}, {day(1), nil}},
			wantCloses: []float64{10},
			wantValid:  []bool{true},
		},
		{
			name:       "null and non-positive are missing",
			rows:       []rawClose{{day(1), nil}, {day(2), ptr(0)}, {day(3), ptr(-1)}, {day(4), ptr(7)}},
			wantCloses: []float64{0, 0, 0, 7},
			wantValid:  []bool{false, false, false, true},
		},
		{
			name: "intraday timestamps fold into the day",
			rows: []rawClose{
				{day(1).Add(9 * time.Hour), ptr(10)},
				{day(1).Add(17 * time.Hour), ptr(12)},
			},
			wantCloses: []float64{12},
			wantValid:  []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := collapseByDate("PETR4", tt.rows)
			require.Equal(t, "PETR4", s.Ticker)
			require.Len(t, s.Points, len(tt.wantCloses))
			for i, p := range s.Points {
				assert.Equal(t, tt.wantCloses[i], p.Close, "point %d", i)
				assert.Equal(t, tt.wantValid[i], p.Valid, "point %d", i)
			}
			assert.True(t, s.IsOrdered())
		})
	}
}
