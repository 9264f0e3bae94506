package domain

// Row is one Bar of a Series together with the fields derived from it.
type Row struct {
	Bar
	Momentum    float64 // Close[i] - Close[i-period]; meaningful only when HasMomentum is set
	HasMomentum bool
	Signal      Signal
}

// Series is an ordered sequence of rows, ascending by OpenTime.
// Stages never modify a Series in place; they return an annotated copy.
type Series []Row

// NewSeries builds an unannotated Series from bars. Nil bars are skipped.
func NewSeries(bars []*Bar) Series {
	series := make(Series, 0, len(bars))
	for _, b := range bars {
		if b == nil {
			continue
		}
		series = append(series, Row{Bar: *b, Signal: SignalUnknown})
	}
	return series
}

// Clone returns a copy of the Series that can be annotated independently.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Closes returns the closing prices of the Series in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i := range s {
		closes[i] = s[i].Close
	}
	return closes
}

// Last returns the final row of the Series and false when the Series is empty.
func (s Series) Last() (Row, bool) {
	if len(s) == 0 {
		return Row{}, false
	}
	return s[len(s)-1], true
}
