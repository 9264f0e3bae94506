package signals

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		momentum float64
		defined  bool
		want     domain.Signal
	}{
		{name: "undefined momentum", defined: false, want: domain.SignalUnknown},
		{name: "above threshold", momentum: 1.5, defined: true, want: domain.SignalBuy},
		{name: "below negative threshold", momentum: -2, defined: true, want: domain.SignalSell},
		{name: "inside band", momentum: 0.5, defined: true, want: domain.SignalHold},
		{name: "exactly threshold", momentum: 1, defined: true, want: domain.SignalHold},
		{name: "exactly negative threshold", momentum: -1, defined: true, want: domain.SignalHold},
		{name: "zero", momentum: 0, defined: true, want: domain.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.momentum, tt.defined, DefaultThreshold))
		})
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{name: "default", threshold: DefaultThreshold},
		{name: "zero", threshold: 0},
		{name: "negative", threshold: -1, wantErr: true},
		{name: "nan", threshold: math.NaN(), wantErr: true},
		{name: "inf", threshold: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(Config{Threshold: tt.threshold})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.threshold, g.Threshold())
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	g, err := NewGenerator(Config{Threshold: DefaultThreshold})
	require.NoError(t, err)

	in := domain.Series{
		{Bar: domain.Bar{Close: 10}},
		{Bar: domain.Bar{Close: 12}, Momentum: 2, HasMomentum: true},
		{Bar: domain.Bar{Close: 15}, Momentum: 3, HasMomentum: true},
		{Bar: domain.Bar{Close: 13}, Momentum: -2, HasMomentum: true},
		{Bar: domain.Bar{Close: 13.5}, Momentum: 0.5, HasMomentum: true},
	}

	out := g.Generate(in)

	want := []domain.Signal{domain.SignalUnknown, domain.SignalBuy, domain.SignalBuy, domain.SignalSell, domain.SignalHold}
	require.Len(t, out, len(want))
	for i, row := range out {
		assert.Equal(t, want[i], row.Signal, "row %d", i)
	}
	// Input is left untouched.
	for _, row := range in {
		assert.Equal(t, domain.Signal(""), row.Signal)
	}

	counts := Count(out)
	assert.Equal(t, 2, counts[domain.SignalBuy])
	assert.Equal(t, 1, counts[domain.SignalSell])
	assert.Equal(t, 1, counts[domain.SignalHold])
	assert.Equal(t, 1, counts[domain.SignalUnknown])
}

func TestGenerator_Deterministic(t *testing.T) {
	g, err := NewGenerator(Config{Threshold: 0.25})
	require.NoError(t, err)

	in := domain.Series{
		{Momentum: 0.3, HasMomentum: true},
		{Momentum: -0.3, HasMomentum: true},
		{Momentum: 0.25, HasMomentum: true},
	}
	assert.Equal(t, g.Generate(in), g.Generate(in))
}
