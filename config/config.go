// Package config carries the render-graph's runtime configuration
// variables. The host parses flags, environment variables, or a config
// file into a Vars value and passes it explicitly into the pipeline-state
// cache (the frame-graph scheduler takes no Vars); this package never
// reads the environment itself.
package config

// Vars is the full set of runtime-configurable render variables.
type Vars struct {
	// DisablePipelineCache skips the on-disk PSO blob cache entirely,
	// forcing every pipeline state to build cold. Defaults to true: a
	// fresh build has no populated cache directory to benefit from, and
	// silently growing one on first run surprises packaging tooling more
	// often than it helps.
	DisablePipelineCache bool

	EnableVSync bool

	ScreenWidth  uint32
	ScreenHeight uint32

	// RefreshRate in Hz; 0 means "pick the highest available".
	RefreshRate int32

	UseDebugLayer bool
}

// Default returns the runtime variables a host should start from absent
// any explicit configuration.
func Default() Vars {
	return Vars{
		DisablePipelineCache: true,
		EnableVSync:          true,
		ScreenWidth:          1920,
		ScreenHeight:         1080,
		RefreshRate:          0,
		UseDebugLayer:        false,
	}
}
