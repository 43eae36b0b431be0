package source

import "github.com/itohio/noteperfect/pkg/device"

// Ensure samplers implement the collaborator interface.
var (
	_ device.VoltageSampler = (*Serial)(nil)
	_ device.VoltageSampler = (*Mock)(nil)
	_ device.VoltageSampler = (*WAV)(nil)
)
