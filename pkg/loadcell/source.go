package loadcell

import (
	"github.com/openlimb/sensecore/pkg/joint"
	"github.com/openlimb/sensecore/pkg/strainamp"
)

// RawChannelSource is one acquisition path for the six raw strain channels:
// either the onboard amplifier chip or an actuator relaying them through
// its auxiliary variables. The engine polls it once per control tick.
type RawChannelSource interface {
	Streaming() bool
	RawChannels() ([6]uint16, error)
}

// Ensure the onboard amplifier driver implements RawChannelSource.
var _ RawChannelSource = (*strainamp.Amp)(nil)

// NewJointSource adapts an actuator relay to the engine's source contract.
// Reading it touches only the relay's cached frame, never the bus.
func NewJointSource(j joint.Source) RawChannelSource {
	return jointSource{j}
}

type jointSource struct {
	j joint.Source
}

func (s jointSource) Streaming() bool {
	return s.j.Streaming()
}

func (s jointSource) RawChannels() ([6]uint16, error) {
	return s.j.Genvars()
}
