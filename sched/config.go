// Environment-derived configuration. Coefficients are read once at
// Context construction time; there is no live-reload.

package sched

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	envAlpha     = "SCHED_ALPHA"
	envBeta      = "SCHED_BETA"
	envGamma     = "SCHED_GAMMA"
	envIdlePower = "IDLE_POWER"
	envSilent    = "SSILENT"
)

// CoefficientsFromEnv reads α, β, γ, idle_power from the environment,
// falling back to DefaultCoefficients for any unset or unparseable value.
func CoefficientsFromEnv() Coefficients {
	c := DefaultCoefficients()
	c.Alpha = floatEnv(envAlpha, c.Alpha)
	c.Beta = floatEnv(envBeta, c.Beta)
	c.Gamma = floatEnv(envGamma, c.Gamma)
	c.IdlePower = floatEnv(envIdlePower, c.IdlePower)
	return c
}

// Silent reports whether SSILENT is set, suppressing diagnostic output by
// raising the log level to Warn.
func Silent() bool {
	v := os.Getenv(envSilent)
	return v != "" && v != "0" && v != "false"
}

// ApplyLogLevel raises logrus's level to Warn when Silent() is set,
// otherwise leaves the caller's configured level untouched.
func ApplyLogLevel() {
	if Silent() {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func floatEnv(name string, fallback float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.Warnf("sched: invalid %s=%q, using default %v", name, v, fallback)
		return fallback
	}
	return f
}
