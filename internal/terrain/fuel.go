// Package terrain generates the fuel-density field used to place the
// hidden fire. Layered simplex noise gives patchy, realistic ignition
// odds; dense cells are more likely to hold the fire.
//
// The field only biases ground-truth placement in the driver. Drone
// beliefs always start from a uniform prior.
package terrain

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/grid"
)

// FuelField holds the normalized fuel density for each grid cell.
type FuelField struct {
	Size    int
	density []float64 // Row-major, sums to 1.
}

// GenerateFuel builds a fuel field for a size×size grid from two noise
// octaves. Deterministic for a given seed.
func GenerateFuel(size int, seed int64) (*FuelField, error) {
	if size <= 0 {
		return nil, fmt.Errorf("terrain: grid size must be positive, got %d", size)
	}

	base := opensimplex.NewNormalized(seed)
	detail := opensimplex.NewNormalized(seed + 1)

	f := &FuelField{
		Size:    size,
		density: make([]float64, size*size),
	}

	var total float64
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			fx := float64(x) / float64(size)
			fy := float64(y) / float64(size)
			v := 0.7*base.Eval2(fx*3, fy*3) + 0.3*detail.Eval2(fx*9, fy*9)
			// Keep a floor so no cell is impossible to ignite.
			if v < 0.05 {
				v = 0.05
			}
			f.density[x*size+y] = v
			total += v
		}
	}
	for i := range f.density {
		f.density[i] /= total
	}
	return f, nil
}

// DensityAt returns the normalized fuel density of a cell.
func (f *FuelField) DensityAt(c grid.Coord) float64 {
	return f.density[c.X*f.Size+c.Y]
}

// SampleIgnition draws a fire location, weighted by fuel density.
func (f *FuelField) SampleIgnition(src chance.Source) grid.Coord {
	target := src.Float64()
	var cum float64
	for i, d := range f.density {
		cum += d
		if cum >= target {
			return grid.Coord{X: i / f.Size, Y: i % f.Size}
		}
	}
	// Floating error can leave the last sliver uncovered.
	return grid.Coord{X: f.Size - 1, Y: f.Size - 1}
}
