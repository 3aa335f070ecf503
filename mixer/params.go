package mixer

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownEffect  = errors.New("unknown effect")
	ErrClosed         = errors.New("engine closed")
)

// ChannelID names one of the two channel strips.
type ChannelID int

const (
	A ChannelID = iota
	B
)

func (c ChannelID) String() string {
	switch c {
	case A:
		return "A"
	case B:
		return "B"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

func (c ChannelID) valid() bool { return c == A || c == B }

// ParseChannel accepts "a"/"b" in either case.
func ParseChannel(s string) (ChannelID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return A, nil
	case "B":
		return B, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// Effect names one send of the effects bus.
type Effect int

const (
	Delay Effect = iota
	Chorus
	Reverb
)

// Effects lists every send in bus order.
var Effects = []Effect{Delay, Chorus, Reverb}

func (e Effect) String() string {
	switch e {
	case Delay:
		return "delay"
	case Chorus:
		return "chorus"
	case Reverb:
		return "reverb"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// ParseEffect accepts an effect name as printed by String.
func ParseEffect(s string) (Effect, error) {
	for _, e := range Effects {
		if strings.EqualFold(strings.TrimSpace(s), e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEffect, s)
}

// OutputMode selects what Engine.Stream produces.
type OutputMode int

const (
	// OutputMaster streams the master bus.
	OutputMaster OutputMode = iota
	// OutputMonitor streams the headphone mix.
	OutputMonitor
	// OutputSplit streams mono master on the left and mono headphones on the right.
	OutputSplit
)

func (m OutputMode) String() string {
	switch m {
	case OutputMaster:
		return "master"
	case OutputMonitor:
		return "monitor"
	case OutputSplit:
		return "split"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseOutputMode accepts master, monitor or split.
func ParseOutputMode(s string) (OutputMode, error) {
	for _, m := range []OutputMode{OutputMaster, OutputMonitor, OutputSplit} {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown output mode %q", s)
}

// EqualPower returns the channel A and B gains for a crossfader position
// in [0, 100]. The squares of the two gains always sum to one.
func EqualPower(position float64) (a, b float64) {
	t := clamp(position, 0, 100) / 100
	return math.Cos(t * math.Pi / 2), math.Cos((1 - t) * math.Pi / 2)
}

// EQScale maps a 0-100 knob position onto a band gain of -40 to +40 dB.
func EQScale(position float64) float64 {
	return (clamp(position, 0, 100) - 50) * 0.8
}

// linear maps a 0-100 control onto a 0-1 gain.
func linear(v float64) float64 {
	return clamp(v, 0, 100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
