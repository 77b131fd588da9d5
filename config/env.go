package config

import (
	"os"
	"strconv"

	"github.com/golobby/cast"

	"github.com/latticeforge/weave"
)

// envPrefix namespaces every override this package recognizes, so a
// WEAVE_STRATEGY=pct in the environment always wins over a config file's
// strategy: random.
const envPrefix = "WEAVE_"

// applyEnv overlays WEAVE_*-prefixed environment variables onto cfg, casting
// each raw string with github.com/golobby/cast so the override types match
// cfg's fields regardless of how the shell quoted them.
func applyEnv(cfg *weave.Config) error {
	if v, ok := lookupEnv("STRATEGY"); ok {
		cfg.Strategy = v
	}
	if v, ok := lookupEnv("PROBABILISTIC_P"); ok {
		f, err := cast.ToFloat64(v)
		if err != nil {
			return err
		}
		cfg.ProbabilisticStayProbability = f
	}
	if v, ok := lookupEnv("PCT_PRIORITY_CHANGES"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.PCTPriorityChanges = n
	}
	if v, ok := lookupEnv("REPLAY_PATH"); ok {
		cfg.ReplayPath = v
	}
	if v, ok := lookupEnv("FUZZ_MAX_DELAY_MILLIS"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.FuzzMaxDelayMillis = n
	}
	if v, ok := lookupEnv("FUZZ_INJECTION_RATE"); ok {
		f, err := cast.ToFloat64(v)
		if err != nil {
			return err
		}
		cfg.FuzzInjectionRate = f
	}
	if v, ok := lookupEnv("LIVENESS_ENABLED"); ok {
		b, err := cast.ToBool(v)
		if err != nil {
			return err
		}
		cfg.LivenessEnabled = b
	}
	if v, ok := lookupEnv("LIVENESS_TEMPERATURE_THRESHOLD"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.LivenessTemperatureThreshold = n
	}
	if v, ok := lookupEnv("MAX_SCHEDULED_STEPS"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.MaxScheduledSteps = n
	}
	if v, ok := lookupEnv("MAX_FAIR_SCHEDULED_STEPS"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.MaxFairScheduledSteps = n
	}
	if v, ok := lookupEnv("NUMBER_OF_ITERATIONS"); ok {
		n, err := cast.ToInt(v)
		if err != nil {
			return err
		}
		cfg.NumberOfIterations = n
	}
	if v, ok := lookupEnv("CONSIDER_DEPTH_BOUND_HIT_AS_BUG"); ok {
		b, err := cast.ToBool(v)
		if err != nil {
			return err
		}
		cfg.ConsiderDepthBoundHitAsBug = b
	}
	if v, ok := lookupEnv("ATTACH_DEBUGGER"); ok {
		b, err := cast.ToBool(v)
		if err != nil {
			return err
		}
		cfg.AttachDebugger = b
	}
	if v, ok := lookupEnv("RANDOM_SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		cfg.RandomSeed = &n
	}
	return nil
}

func lookupEnv(suffix string) (string, bool) {
	return os.LookupEnv(envPrefix + suffix)
}
