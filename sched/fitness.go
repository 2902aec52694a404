// Fitness Evaluator: combines a candidate's predicted completion time, data
// penalty, and energy into the scalar cost the Decision Engine minimizes.

package sched

// Coefficients are the policy's weighting knobs: α weights the
// critical-path delta, β weights the data penalty, γ weights energy (and
// the idle-power surcharge). They are strictly context-local — every
// Context holds its own copy rather than sharing one process-global set,
// so concurrently running contexts can be tuned independently.
type Coefficients struct {
	Alpha     float64
	Beta      float64
	Gamma     float64
	IdlePower float64
}

// DefaultCoefficients returns the baseline weighting used when no
// environment override is present.
func DefaultCoefficients() Coefficients {
	return Coefficients{Alpha: 1.0, Beta: 1.0, Gamma: 1000.0, IdlePower: 0.0}
}

// FitnessInputs are the per-candidate values the formula combines.
type FitnessInputs struct {
	ExpEnd      float64 // this candidate's predicted completion time
	BestExpEnd  float64 // minimum ExpEnd across all candidates
	MaxExpEnd   float64 // maximum currently-scheduled horizon across all workers
	DataPenalty float64 // predicted data-transfer time (or conversion+transfer)
	Energy      float64 // predicted joules; 0 if the Oracle returned NaN
}

// Fitness computes the scalar cost of one (worker, implementation)
// candidate. Lower is better.
//
//	fitness = α·(exp_end − best_exp_end) + β·data_penalty + γ·energy
//	if exp_end > max_exp_end:
//	        fitness += γ · idle_power · (exp_end − max_exp_end) / 1e6
func Fitness(in FitnessInputs, c Coefficients) float64 {
	f := c.Alpha*(in.ExpEnd-in.BestExpEnd) + c.Beta*in.DataPenalty + c.Gamma*in.Energy
	if in.ExpEnd > in.MaxExpEnd {
		f += c.Gamma * c.IdlePower * (in.ExpEnd - in.MaxExpEnd) / 1e6
	}
	return f
}
