package pipeline

import (
	"fmt"
	"slices"

	"github.com/strrl/torque-analyzer/internal/signals"
)

type Conditioner struct {
	torqueConstant float64
	window         int
	degree         int
}

func NewConditioner(torqueConstant float64, window, degree int) (*Conditioner, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("smoothing window must be a positive odd number, got %d", window)
	}
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must not be negative, got %d", degree)
	}

	return &Conditioner{
		torqueConstant: torqueConstant,
		window:         window,
		degree:         degree,
	}, nil
}

// Condition converts current to torque, flips speed to positive rotation and smooths both
// channels. Short series shrink the window; a window too small for the degree skips smoothing.
func (c *Conditioner) Condition(samples []signals.Sample) (signals.Series, error) {
	n := len(samples)
	series := signals.Series{
		Time:      make([]float64, n),
		TorqueRaw: make([]float64, n),
		SpeedRaw:  make([]float64, n),
	}

	for i, s := range samples {
		series.Time[i] = s.Time
		series.TorqueRaw[i] = -s.Current * c.torqueConstant
		series.SpeedRaw[i] = -s.Speed
	}

	window := signals.EffectiveWindow(c.window, n)
	if window <= c.degree {
		series.TorqueSmoothed = slices.Clone(series.TorqueRaw)
		series.SpeedSmoothed = slices.Clone(series.SpeedRaw)
		return series, nil
	}

	var err error
	series.TorqueSmoothed, err = signals.SavGol(series.TorqueRaw, window, c.degree)
	if err != nil {
		return signals.Series{}, fmt.Errorf("failed to smooth torque: %w", err)
	}
	series.SpeedSmoothed, err = signals.SavGol(series.SpeedRaw, window, c.degree)
	if err != nil {
		return signals.Series{}, fmt.Errorf("failed to smooth speed: %w", err)
	}
	series.Window = window

	return series, nil
}
