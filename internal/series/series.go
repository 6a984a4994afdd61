// Package series holds the per-column sample data shared by the edit
// surface and the audio layer, together with its running statistics.
package series

import "math"

// Stats are the aggregates of the finite samples in a series.
// Mean is NaN when Count is zero.
type Stats struct {
	Min   float64
	Max   float64
	Sum   float64
	Mean  float64
	Count int
}

// Window is the fold of a sample window, ignoring non-finite entries.
type Window struct {
	Min   float64
	Max   float64
	Sum   float64
	Count int
}

// Patch is a contiguous replacement of samples starting at Start.
type Patch struct {
	Start  int
	Values []float64
}

// End returns the index one past the last replaced column.
func (p Patch) End() int { return p.Start + len(p.Values) }

// Series is an ordered sample per column plus stats kept in step with
// every mutation. It is not safe for concurrent use; the render worker
// owns it.
type Series struct {
	samples []float64
	stats   Stats
}

// New returns an empty series.
func New() *Series {
	s := &Series{}
	s.stats = emptyStats()
	return s
}

// Present reports whether v counts towards statistics.
func Present(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WindowStats folds values into min, max and sum, skipping non-finite
// entries. An empty window has Min=+Inf and Max=-Inf.
func WindowStats(values []float64) Window {
	w := Window{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if !Present(v) {
			continue
		}
		if v < w.Min {
			w.Min = v
		}
		if v > w.Max {
			w.Max = v
		}
		w.Sum += v
		w.Count++
	}
	return w
}

func emptyStats() Stats {
	return Stats{Min: math.Inf(1), Max: math.Inf(-1), Mean: math.NaN()}
}

// Load replaces every sample with the finite entries of values and
// recomputes the stats from scratch.
func (s *Series) Load(values []float64) {
	samples := make([]float64, 0, len(values))
	for _, v := range values {
		if Present(v) {
			samples = append(samples, v)
		}
	}
	s.samples = samples

	w := WindowStats(samples)
	s.stats = Stats{Min: w.Min, Max: w.Max, Sum: w.Sum, Count: w.Count}
	s.stats.Mean = mean(s.stats.Sum, s.stats.Count)
}

// Replace overwrites samples from start with values, truncated at the end
// of the series so its length never changes. It returns the patch that was
// actually applied; ok is false when nothing changed structurally (start out
// of range or nothing to write).
//
// Min and max only ever widen: a replacement that removes the current
// extreme does not tighten them. Sum and mean are always exact.
func (s *Series) Replace(start int, values []float64) (p Patch, ok bool) {
	n := len(s.samples)
	if start < 0 || start >= n || len(values) == 0 {
		return Patch{}, false
	}
	if start+len(values) > n {
		values = values[:n-start]
	}

	incoming := WindowStats(values)
	old := WindowStats(s.samples[start : start+len(values)])

	applied := make([]float64, len(values))
	copy(applied, values)
	copy(s.samples[start:], applied)

	if incoming.Min < s.stats.Min {
		s.stats.Min = incoming.Min
	}
	if incoming.Max > s.stats.Max {
		s.stats.Max = incoming.Max
	}
	s.stats.Sum += incoming.Sum - old.Sum
	s.stats.Count += incoming.Count - old.Count
	s.stats.Mean = mean(s.stats.Sum, s.stats.Count)

	return Patch{Start: start, Values: applied}, true
}

func mean(sum float64, count int) float64 {
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// Stats returns the current aggregates.
func (s *Series) Stats() Stats { return s.stats }

// Len returns the number of columns.
func (s *Series) Len() int { return len(s.samples) }

// At returns the sample at column i.
func (s *Series) At(i int) float64 { return s.samples[i] }

// Values returns a copy of all samples.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Equal reports whether two stats are identical, treating NaN means as equal.
func (a Stats) Equal(b Stats) bool {
	sameMean := a.Mean == b.Mean || (math.IsNaN(a.Mean) && math.IsNaN(b.Mean))
	return a.Min == b.Min && a.Max == b.Max && a.Sum == b.Sum && a.Count == b.Count && sameMean
}
