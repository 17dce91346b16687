// Package wind animates the per-texel wind field that sways grass.
package wind

import "math"

// DefaultTableSize is the default sine table resolution.
const DefaultTableSize = 1024

// Table is a precomputed sine lookup over one full turn.
type Table struct {
	values []float32
	step   float32 // table entries per radian
}

// NewTable builds a table with size entries (minimum 4).
func NewTable(size int) *Table {
	if size < 4 {
		size = 4
	}
	t := &Table{
		values: make([]float32, size),
		step:   float32(size) / (2 * math.Pi),
	}
	for i := range t.values {
		t.values[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(size)))
	}
	return t
}

// Size returns the number of entries.
func (t *Table) Size() int {
	return len(t.values)
}

// At returns the entry for an integer phase, wrapped to the table.
func (t *Table) At(phase int) float32 {
	n := len(t.values)
	phase %= n
	if phase < 0 {
		phase += n
	}
	return t.values[phase]
}

// Sin approximates sin(rad) by nearest-entry lookup.
func (t *Table) Sin(rad float32) float32 {
	if math.IsNaN(float64(rad)) {
		return 0
	}
	return t.At(int(math.Floor(float64(rad*t.step + 0.5))))
}

// Cos approximates cos(rad).
func (t *Table) Cos(rad float32) float32 {
	return t.Sin(rad + math.Pi/2)
}
