package tui

import "math"

// Scale selects how a Series maps its values onto plot levels (0..100).
type Scale int

const (
	// ScalePercent plots values as given, clamped to 0..100.
	ScalePercent Scale = iota
	// ScaleRange stretches the plotted values between their minimum and
	// maximum, so benchmark durations show relative jitter. A flat window
	// sits at mid-height.
	ScaleRange
)

var levelBlocks = []rune("▁▂▃▄▅▆▇█")

// Braille dot bits by column and row within one cell (U+2800 block).
var brailleBits = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// Series is a sliding window over one measurement, oldest value first.
type Series struct {
	scale  Scale
	window int
	values []float64
}

// NewSeries returns an empty series keeping at most window values.
func NewSeries(window int, scale Scale) *Series {
	return &Series{scale: scale, window: max(window, 1)}
}

// Add appends v, dropping the oldest value once the window is full.
func (s *Series) Add(v float64) {
	s.values = append(s.values, v)
	if over := len(s.values) - s.window; over > 0 {
		s.values = s.values[over:]
	}
}

// Len returns the number of values held.
func (s *Series) Len() int { return len(s.values) }

// Latest returns the newest value, or false when the series is empty.
func (s *Series) Latest() (float64, bool) {
	if len(s.values) == 0 {
		return 0, false
	}
	return s.values[len(s.values)-1], true
}

// Values returns a copy of the held values, oldest first.
func (s *Series) Values() []float64 {
	if len(s.values) == 0 {
		return nil
	}
	return append([]float64(nil), s.values...)
}

// Clear drops every value. The window is kept.
func (s *Series) Clear() { s.values = nil }

// SetWindow changes the window, keeping the newest values that fit.
func (s *Series) SetWindow(n int) {
	s.window = max(n, 1)
	if over := len(s.values) - s.window; over > 0 {
		s.values = append([]float64(nil), s.values[over:]...)
	}
}

// Levels returns the newest n values (all when n <= 0) mapped onto 0..100.
// Under ScaleRange the mapping is computed over the returned values only.
func (s *Series) Levels(n int) []float64 {
	vals := s.values
	if n > 0 && len(vals) > n {
		vals = vals[len(vals)-n:]
	}
	if len(vals) == 0 {
		return nil
	}
	out := make([]float64, len(vals))
	if s.scale == ScalePercent {
		for i, v := range vals {
			out[i] = math.Min(math.Max(v, 0), 100)
		}
		return out
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	for i, v := range vals {
		if hi == lo {
			out[i] = 50
			continue
		}
		out[i] = (v - lo) / (hi - lo) * 100
	}
	return out
}

// Sparkline renders the newest width values as one row of block glyphs.
// width <= 0 renders the whole window.
func (s *Series) Sparkline(width int) string {
	levels := s.Levels(width)
	glyphs := make([]rune, len(levels))
	top := len(levelBlocks) - 1
	for i, l := range levels {
		glyphs[i] = levelBlocks[int(math.Round(l/100*float64(top)))]
	}
	return string(glyphs)
}

// Braille renders the newest values as a dot plot of rows lines, each width
// cells wide. Every cell holds two values; the newest value is rightmost.
func (s *Series) Braille(width, rows int) []string {
	if width <= 0 || rows <= 0 || len(s.values) == 0 {
		return nil
	}
	levels := s.Levels(width * 2)
	height := rows * 4

	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = make([]rune, width)
		for c := range cells[r] {
			cells[r][c] = 0x2800
		}
	}

	// Right-align: the last level lands in the last dot column.
	offset := width*2 - len(levels)
	for i, l := range levels {
		col := offset + i
		dot := height - 1 - int(math.Round(l/100*float64(height-1)))
		cells[dot/4][col/2] |= brailleBits[col%2][dot%4]
	}

	lines := make([]string, rows)
	for r, line := range cells {
		lines[r] = string(line)
	}
	return lines
}
