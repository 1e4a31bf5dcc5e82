package region

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolume(t *testing.T) {
	tests := []struct {
		region Region
		want   float64
	}{
		{New([2]float64{0, 1}), 1},
		{New([2]float64{0, 2}, [2]float64{-1, 1}), 4},
		{New([2]float64{-0.5, 0.5}, [2]float64{1, 4}, [2]float64{2, 2.5}), 1.5},
		{New([2]float64{3, 3}, [2]float64{0, 10}), 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d dims %s", tt.region.Dims(), tt.region), func(t *testing.T) {
			want := 1.0
			for _, b := range tt.region {
				want *= b.Upper - b.Lower
			}
			assert.InDelta(t, want, tt.region.Volume(), 1e-12)
			assert.InDelta(t, tt.want, tt.region.Volume(), 1e-12)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{"unit interval", New([2]float64{0, 1}), false},
		{"degenerate dimension", New([2]float64{0, 1}, [2]float64{2, 2}), false},
		{"empty", Region{}, true},
		{"nil", nil, true},
		{"reversed", New([2]float64{0, 1}, [2]float64{1, 0}), true},
		{"nan bound", New([2]float64{math.NaN(), 1}), true},
		{"infinite bound", New([2]float64{0, math.Inf(1)}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRegion)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContains(t *testing.T) {
	r := New([2]float64{0, 1}, [2]float64{-2, 2})

	assert.True(t, r.Contains(Point{0, -2}))
	assert.True(t, r.Contains(Point{1, 2}))
	assert.True(t, r.Contains(Point{0.5, 0}))
	assert.False(t, r.Contains(Point{1.01, 0}))
	assert.False(t, r.Contains(Point{0.5}))
}

func TestParse(t *testing.T) {
	r, err := Parse("0:1, -1:1 ,2.5:3")
	require.NoError(t, err)
	assert.Equal(t, New([2]float64{0, 1}, [2]float64{-1, 1}, [2]float64{2.5, 3}), r)
	assert.Equal(t, "0:1,-1:1,2.5:3", r.String())

	for _, bad := range []string{"", "0-1", "a:1", "0:b", "1:0"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidRegion, "input %q", bad)
	}
}
