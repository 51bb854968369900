package rank

import (
	"errors"
	"math"
	"testing"

	"github.com/hireloop/matchrank/internal/domain"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector scores zero", []float32{0, 0}, []float32{1, 1}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := cosine([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNormalizedCosineInUnitRange(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{-1, -2, -3},
		{0.5, -0.5, 4},
		{100, 0, 0},
		{0.001, 0.001, 0.001},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			cos, err := cosine(a, b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			norm := normalizeCosine(cos)
			if norm < 0 || norm > 1 {
				t.Fatalf("normalized cosine %v out of [0,1] for %v vs %v", norm, a, b)
			}
		}
	}
}
