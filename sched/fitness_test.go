package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitness_BestCandidateScoresLowest(t *testing.T) {
	c := DefaultCoefficients()

	best := Fitness(FitnessInputs{ExpEnd: 25, BestExpEnd: 25, MaxExpEnd: 100, DataPenalty: 5, Energy: 0}, c)
	worst := Fitness(FitnessInputs{ExpEnd: 100, BestExpEnd: 25, MaxExpEnd: 100, DataPenalty: 0, Energy: 0}, c)

	assert.Less(t, best, worst)
}

func TestFitness_ScenarioS1(t *testing.T) {
	// Two empty workers: CPU (speedup 1.0, length 100ms, transfer 0) vs GPU
	// (speedup 10.0, length 20ms, transfer 5ms). alpha=1, beta=1, gamma=0.
	c := Coefficients{Alpha: 1, Beta: 1, Gamma: 0}

	cpuEnd := 0 + 0 + 0.100
	gpuEnd := 0 + 0 + 0.020 + 0.005

	bestEnd := gpuEnd

	cpuScore := Fitness(FitnessInputs{ExpEnd: cpuEnd, BestExpEnd: bestEnd, MaxExpEnd: cpuEnd, DataPenalty: 0}, c)
	gpuScore := Fitness(FitnessInputs{ExpEnd: gpuEnd, BestExpEnd: bestEnd, MaxExpEnd: cpuEnd, DataPenalty: 0.005}, c)

	assert.InDelta(t, 0.075, cpuScore, 1e-9)
	assert.InDelta(t, 0.005, gpuScore, 1e-9)
	assert.Less(t, gpuScore, cpuScore)
}

func TestFitness_IdlePowerSurchargeOnlyPastMax(t *testing.T) {
	c := Coefficients{Alpha: 0, Beta: 0, Gamma: 1, IdlePower: 2.0}

	pastMax := Fitness(FitnessInputs{ExpEnd: 50, BestExpEnd: 10, MaxExpEnd: 40, Energy: 1}, c)
	atMax := Fitness(FitnessInputs{ExpEnd: 40, BestExpEnd: 10, MaxExpEnd: 40, Energy: 1}, c)

	assert.Greater(t, pastMax, atMax)
	assert.InDelta(t, 1.0, atMax, 1e-9) // no surcharge when exp_end == max_exp_end
}
