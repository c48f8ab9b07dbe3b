// Package grid provides the square search grid, coordinate math, and
// sensing window geometry.
package grid

import "fmt"

// Coord represents a cell position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the coordinate as "(x, y)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Clamp returns the coordinate with both axes forced into [0, size-1].
// Movement never wraps and never leaves the grid.
func (c Coord) Clamp(size int) Coord {
	return Coord{X: clampAxis(c.X, size), Y: clampAxis(c.Y, size)}
}

func clampAxis(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// InBounds returns true if the coordinate lies within a size×size grid.
func (c Coord) InBounds(size int) bool {
	return c.X >= 0 && c.X < size && c.Y >= 0 && c.Y < size
}

// Window is the rectangular sensing footprint of an agent, already
// intersected with the grid. Both bounds are inclusive.
type Window struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Footprint returns the sensing window of side windowSize centered on
// center, clipped to a size×size grid. The half-width is windowSize/2
// with integer division, so even window sizes cover windowSize+1 cells
// per axis before clipping.
func Footprint(center Coord, windowSize, size int) Window {
	half := windowSize / 2
	w := Window{
		MinX: center.X - half,
		MaxX: center.X + half,
		MinY: center.Y - half,
		MaxY: center.Y + half,
	}
	if w.MinX < 0 {
		w.MinX = 0
	}
	if w.MinY < 0 {
		w.MinY = 0
	}
	if w.MaxX > size-1 {
		w.MaxX = size - 1
	}
	if w.MaxY > size-1 {
		w.MaxY = size - 1
	}
	return w
}

// Contains returns true if the coordinate falls inside the window.
func (w Window) Contains(c Coord) bool {
	return c.X >= w.MinX && c.X <= w.MaxX && c.Y >= w.MinY && c.Y <= w.MaxY
}

// CellCount returns the number of grid cells the window covers.
func (w Window) CellCount() int {
	return (w.MaxX - w.MinX + 1) * (w.MaxY - w.MinY + 1)
}
