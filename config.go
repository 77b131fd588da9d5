package weave

// Config holds every knob a run can be tuned with: strategy selection and
// its per-strategy parameters, step/iteration budgets, liveness detection,
// and debugging aids.
//
// config.Load populates a Config from a file plus environment/flag
// overrides; constructing one by hand (as tests do) is equally valid.
type Config struct {
	// Strategy names which scheduling strategy to run: "random",
	// "probabilistic", "pct", "replay", or "fuzz".
	Strategy string `yaml:"strategy" toml:"strategy"`

	// ProbabilisticStayProbability is consulted only when Strategy ==
	// "probabilistic".
	ProbabilisticStayProbability float64 `yaml:"probabilistic_p" toml:"probabilistic_p"`

	// PCTPriorityChanges is consulted only when Strategy == "pct".
	PCTPriorityChanges int `yaml:"pct_priority_changes" toml:"pct_priority_changes"`

	// ReplayPath is consulted only when Strategy == "replay": the schedule
	// trace file to deserialize.
	ReplayPath string `yaml:"replay_path" toml:"replay_path"`

	// FuzzMaxDelayMillis and FuzzInjectionRate are consulted only when
	// Strategy == "fuzz".
	FuzzMaxDelayMillis int     `yaml:"fuzz_max_delay_millis" toml:"fuzz_max_delay_millis"`
	FuzzInjectionRate  float64 `yaml:"fuzz_injection_rate" toml:"fuzz_injection_rate"`

	// LivenessEnabled wraps Strategy with a Liveness temperature tracker.
	LivenessEnabled              bool `yaml:"liveness_enabled" toml:"liveness_enabled"`
	LivenessTemperatureThreshold int  `yaml:"liveness_temperature_threshold" toml:"liveness_temperature_threshold"`

	MaxScheduledSteps          int  `yaml:"max_scheduled_steps" toml:"max_scheduled_steps"`
	MaxFairScheduledSteps      int  `yaml:"max_fair_scheduled_steps" toml:"max_fair_scheduled_steps"`
	NumberOfIterations         int  `yaml:"number_of_iterations" toml:"number_of_iterations"`
	ConsiderDepthBoundHitAsBug bool `yaml:"consider_depth_bound_hit_as_bug" toml:"consider_depth_bound_hit_as_bug"`
	AttachDebugger             bool `yaml:"attach_debugger" toml:"attach_debugger"`

	// RandomSeed is a pointer so "unset" (draw a fresh seed) is
	// distinguishable from an explicit seed of zero.
	RandomSeed *uint64 `yaml:"random_seed" toml:"random_seed"`
}

// DefaultConfig returns the Configuration defaults a freshly constructed
// Runtime uses when no file, environment, or flag overrides it.
func DefaultConfig() Config {
	return Config{
		Strategy:                     "random",
		ProbabilisticStayProbability: 0.5,
		PCTPriorityChanges:           3,
		FuzzMaxDelayMillis:           50,
		FuzzInjectionRate:            50,
		LivenessTemperatureThreshold: 150,
		MaxScheduledSteps:            10_000,
		MaxFairScheduledSteps:        10_000,
		NumberOfIterations:           1,
		ConsiderDepthBoundHitAsBug:   false,
		AttachDebugger:               false,
	}
}
