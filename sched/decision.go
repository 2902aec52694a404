// The Decision Engine: iterates eligible (worker, implementation)
// candidates, scores each with the Fitness Evaluator (DMDA) or the simpler
// length+occupancy formula (DM), and selects the minimum — falling back to
// greedy calibration when predictions are missing.

package sched

import (
	"math"

	"github.com/dispatch-sim/dispatch-sim/sched/trace"
)

// EngineVariant selects which scoring formula the Decision Engine uses.
type EngineVariant string

const (
	// VariantDM scores candidates by exp_start + exp_len + expected_length
	// only (length + occupancy; ignores data/energy).
	VariantDM EngineVariant = "dm"
	// VariantDMDA scores candidates with the full Fitness Evaluator
	// formula (length + data + energy).
	VariantDMDA EngineVariant = "dmda"
)

// EngineOptions are the orthogonal modes every Decide call can combine
// with either variant. Whether the caller commits the result or only
// inspects it has no effect on the computation Decide performs, so that
// choice lives at the Facade level (SimulatePush vs Push), not here.
type EngineOptions struct {
	Variant        EngineVariant
	SortedDecision bool // prev_exp_len reflects priority-respecting insertion position
}

// Engine is the Decision Engine: it never mutates FIFOs itself, only reads
// racy Snapshots and the Oracle, then hands its pick to Facade.commit.
type Engine struct {
	Oracle Oracle
	Coeffs Coefficients
	Clock  Clock

	// Trace, if non-nil, receives a DecisionRecord after every Decide call.
	// Left nil, tracing costs nothing.
	Trace *trace.Decisions
}

// candidate is one (worker, implementation) pair under evaluation.
type candidate struct {
	worker *WorkerFIFO
	impl   int

	// expEnd is exp_start + ahead + length + transfer, the transfer-
	// inclusive horizon DMDA's Fitness Evaluator scores against (and the
	// value bestExpEnd is computed from; maxExpEnd comes from the workers'
	// current snapshot horizons).
	expEnd float64
	// lengthOnlyEnd is exp_start + ahead + length, with no transfer term —
	// DM's own exp_end, per dm_push_task's exp_end = exp_start + exp_len +
	// local_length (the data-transfer penalty is never added to it).
	lengthOnlyEnd     float64
	predictedLength   float64
	predictedTransfer float64
	energy            float64
	dataPenalty       float64
	score             float64
}

func isUncalibrated(length float64) bool {
	return math.IsNaN(length) || length <= 0
}

// horizonAhead returns the "prev_exp_len" a sorted-push decision should use
// as the horizon ahead of task: the per-priority bucket if the worker has
// one configured, else the O(n) linear-scan fallback. Non-sorted decisions
// use the full exp_len from snap.
func horizonAhead(w *WorkerFIFO, task *Task, snap Snapshot, sortedDecision bool) float64 {
	if !sortedDecision {
		return snap.ExpLen
	}
	if v, ok := w.ExpLenPerPriority(task.Priority); ok {
		return v
	}
	return w.GetExpLenIfInserted(task)
}

// Decision is the Engine's pick for a task, ready for Context to commit (or
// discard, for Simulate).
type Decision struct {
	Worker            *WorkerFIFO
	Impl              int
	ExpEnd            float64
	PredictedLength   float64
	PredictedTransfer float64
	// Calibrating is set the first time any candidate's length prediction
	// was NaN — an uncalibrated model is an expected warm-up state, not
	// an error.
	Calibrating bool
	// Unknown is set if any candidate had a NaN or non-positive predicted
	// length; when true, Worker/Impl are the greedy ntasks/speedup pick
	// and PredictedLength/PredictedTransfer are forced to zero so horizon
	// bookkeeping stays conservative.
	Unknown bool
}

// Decide evaluates every eligible (worker, implementation) candidate for
// task across snapshot and returns the chosen one. Returns ErrNoEligibleWorker
// if no worker in snapshot can execute any implementation of task's
// codelet.
func (e *Engine) Decide(snapshot []*WorkerFIFO, task *Task, opts EngineOptions) (Decision, error) {
	var (
		best        *candidate
		bestScore   = math.Inf(1)
		bestExpEnd  = math.Inf(1)
		maxExpEnd   = math.Inf(-1)
		candidates  []*candidate
		calibrating bool
		unknown     bool

		greedyWorker *WorkerFIFO
		greedyImpl   int
		greedyScore  = math.Inf(1)
		sawEligible  bool
	)

	for _, w := range snapshot {
		mask := e.Oracle.CanExecute(w, task)
		if mask == 0 {
			continue
		}
		snap := w.Peek()
		if snap.ExpEnd > maxExpEnd {
			maxExpEnd = snap.ExpEnd
		}
		for impl := range task.Codelet.Implementations {
			if mask&(1<<uint(impl)) == 0 {
				continue
			}
			sawEligible = true
			arch := task.Codelet.Implementations[impl].Arch

			// Greedy candidate tracked in parallel regardless of whether
			// this candidate's length is calibrated.
			greedyCost := float64(snap.NTasks) / e.Oracle.RelativeSpeedup(arch)
			if greedyCost < greedyScore {
				greedyScore = greedyCost
				greedyWorker = w
				greedyImpl = impl
			}

			length := e.Oracle.ExpectedLength(task, arch, impl)
			if math.IsNaN(length) {
				calibrating = true
			}
			if isUncalibrated(length) {
				unknown = true
				continue // cannot contribute a numeric exp_end candidate
			}

			transfer := e.Oracle.ExpectedDataTransferTime(w.MemoryNode(), task)
			if math.IsNaN(transfer) {
				transfer = 0
			}
			transfer += e.Oracle.ExpectedConversionTime(task, arch, impl)

			ahead := horizonAhead(w, task, snap, opts.SortedDecision)
			expStart := snap.ExpStart
			expEnd := expStart + ahead + length + transfer

			if expEnd < bestExpEnd {
				bestExpEnd = expEnd
			}

			energy := e.Oracle.ExpectedEnergy(task, arch, impl)
			if math.IsNaN(energy) {
				energy = 0
			}

			c := &candidate{
				worker:            w,
				impl:              impl,
				expEnd:            expEnd,
				lengthOnlyEnd:     expStart + ahead + length,
				predictedLength:   length,
				predictedTransfer: transfer,
				energy:            energy,
				dataPenalty:       transfer,
			}
			candidates = append(candidates, c)
		}
	}

	if !sawEligible {
		return Decision{}, ErrNoEligibleWorker
	}

	if unknown {
		assertf(greedyWorker != nil, "sched: greedy fallback with no candidate")
		d := Decision{
			Worker:      greedyWorker,
			Impl:        greedyImpl,
			ExpEnd:      greedyWorker.Peek().ExpEnd,
			Calibrating: calibrating,
			Unknown:     true,
		}
		e.recordDecision(task, d, nil)
		return d, nil
	}

	for _, c := range candidates {
		var score float64
		switch opts.Variant {
		case VariantDM:
			// No data-transfer term: dm_push_task's exp_end never adds
			// local_penalty, it only forwards it to the commit.
			score = c.lengthOnlyEnd
		default: // VariantDMDA
			score = Fitness(FitnessInputs{
				ExpEnd:      c.expEnd,
				BestExpEnd:  bestExpEnd,
				MaxExpEnd:   maxExpEnd,
				DataPenalty: c.dataPenalty,
				Energy:      c.energy,
			}, e.Coeffs)
		}
		c.score = score
		if score < bestScore {
			bestScore = score
			best = c
		}
	}

	assertf(best != nil, "sched: no candidate selected despite eligible workers")
	reportedEnd := best.expEnd
	if opts.Variant == VariantDM {
		reportedEnd = best.lengthOnlyEnd
	}
	d := Decision{
		Worker:            best.worker,
		Impl:              best.impl,
		ExpEnd:            reportedEnd,
		PredictedLength:   best.predictedLength,
		PredictedTransfer: best.predictedTransfer,
		Calibrating:       calibrating,
	}
	e.recordDecision(task, d, candidates)
	return d, nil
}

// recordDecision appends a DecisionRecord to e.Trace, if tracing is
// enabled. candidates is only walked (to build CandidateRecords) when the
// configured level is LevelCandidates.
func (e *Engine) recordDecision(task *Task, d Decision, candidates []*candidate) {
	if e.Trace == nil || e.Trace.Config.Level == trace.LevelNone || e.Trace.Config.Level == "" {
		return
	}
	rec := trace.DecisionRecord{
		TaskID:       task.ID,
		ChosenWorker: string(d.Worker.ID()),
		ChosenImpl:   d.Impl,
		ExpEnd:       d.ExpEnd,
		Calibrating:  d.Calibrating,
		Unknown:      d.Unknown,
	}
	if e.Clock != nil {
		rec.Clock = e.Clock.Now()
	}
	if e.Trace.Config.Level == trace.LevelCandidates {
		for _, c := range candidates {
			rec.Candidates = append(rec.Candidates, trace.CandidateRecord{
				Worker:      string(c.worker.ID()),
				Impl:        c.impl,
				ExpEnd:      c.expEnd,
				DataPenalty: c.dataPenalty,
				Energy:      c.energy,
				Score:       c.score,
			})
		}
	}
	e.Trace.Record(rec)
}
