package ratelimit

import (
	"fmt"
	"time"
)

// PresetName identifies one class of guarded action. The set is closed:
// presets are defined at build time and never change at runtime.
type PresetName string

const (
	PresetContact           PresetName = "contact"
	PresetInquiry           PresetName = "inquiry"
	PresetCacheInvalidation PresetName = "cacheInvalidation"
	PresetAnalytics         PresetName = "analytics"
)

// Preset is an immutable {ceiling, window} pair. Every identifier
// sharing a preset shares the window length and ceiling but counts
// independently.
type Preset struct {
	MaxRequests int
	Window      time.Duration
}

var presets = map[PresetName]Preset{
	PresetContact:           {MaxRequests: 5, Window: time.Minute},
	PresetInquiry:           {MaxRequests: 3, Window: time.Minute},
	PresetCacheInvalidation: {MaxRequests: 10, Window: time.Minute},
	PresetAnalytics:         {MaxRequests: 100, Window: time.Minute},
}

// presetByName panics on an unknown name: the registry is exhaustive,
// so a miss means a caller fabricated a PresetName.
func presetByName(name PresetName) Preset {
	preset, ok := presets[name]
	if !ok {
		panic(fmt.Sprintf("ratelimit: unknown preset %q", name))
	}
	return preset
}
