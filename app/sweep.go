package app

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"questkit/domain/quest"
	"questkit/internal"
	"questkit/internal/errors"
	"questkit/ports"
)

// SweepConfig drives a batch of simulated threshold measurements
type SweepConfig struct {
	Params        quest.Params // estimator parameters shared by every run
	Policy        quest.Policy // recommendation policy under test
	Runs          int          // number of simulated observers
	TrialsPerRun  int          // trials fed to each estimator
	ThresholdMean float64      // latent thresholds are drawn from N(mean, sd)
	ThresholdSD   float64
	Seed          int64 // base seed; run i uses Seed+i
	Concurrency   int64 // max simultaneous runs (defaults to 4)
}

// RunResult is the outcome of one simulated measurement
type RunResult struct {
	Run       int     `json:"run"`
	Threshold float64 `json:"threshold"` // latent threshold of the simulated observer
	Estimate  float64 `json:"estimate"`  // final posterior mean
	SD        float64 `json:"sd"`        // final posterior sd
	Error     float64 `json:"error"`     // Estimate - Threshold
}

// SweepSummary aggregates the estimation errors across all runs
type SweepSummary struct {
	Runs        int     `json:"runs"`
	MeanError   float64 `json:"mean_error"`
	MedianError float64 `json:"median_error"`
	ErrorSD     float64 `json:"error_sd"`
	P05Error    float64 `json:"p05_error"`
	P95Error    float64 `json:"p95_error"`
	MeanFinalSD float64 `json:"mean_final_sd"`
}

// SweepResult bundles the per-run outcomes with their summary
type SweepResult struct {
	Results []RunResult  `json:"results"`
	Summary SweepSummary `json:"summary"`
}

// SweepService runs batches of simulated QUEST measurements to validate an
// estimator configuration before it is used on real observers.
type SweepService struct {
	logger *internal.Logger
}

// NewSweepService creates a sweep service
func NewSweepService(logger *internal.Logger) *SweepService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SweepService{logger: logger}
}

// Run executes the configured sweep. Each run owns its estimator and rng, so
// runs proceed concurrently under a bounded semaphore; results are
// deterministic for a fixed seed regardless of scheduling.
func (s *SweepService) Run(ctx context.Context, cfg SweepConfig) (*SweepResult, error) {
	if cfg.Runs <= 0 {
		return nil, errors.New("SWEEP_INVALID", "sweep needs at least one run")
	}
	if cfg.TrialsPerRun <= 0 {
		return nil, errors.New("SWEEP_INVALID", "sweep needs at least one trial per run")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]RunResult, cfg.Runs)
	sem := semaphore.NewWeighted(concurrency)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i := 0; i < cfg.Runs; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(run int) {
			defer wg.Done()
			defer sem.Release(1)
			res, err := s.runOne(cfg, run)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[run] = res
		}(i)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	summary, err := summarize(results)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sweep finished: %d runs, mean error %.4f, error sd %.4f",
		summary.Runs, summary.MeanError, summary.ErrorSD)
	return &SweepResult{Results: results, Summary: summary}, nil
}

// runOne measures one simulated observer
func (s *SweepService) runOne(cfg SweepConfig, run int) (RunResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(run)))
	threshold := cfg.ThresholdMean + cfg.ThresholdSD*rng.NormFloat64()

	est, err := quest.New(cfg.Params, quest.WithoutClipWarnings())
	if err != nil {
		return RunResult{}, err
	}
	var obs ports.Observer = quest.NewSimulatedObserver(est, threshold, rng)
	for t := 0; t < cfg.TrialsPerRun; t++ {
		next, err := est.Recommend(cfg.Policy)
		if err != nil {
			return RunResult{}, errors.Wrapf(err, "run %d trial %d", run, t)
		}
		if err := est.Update(next, obs.Respond(next)); err != nil {
			return RunResult{}, errors.Wrapf(err, "run %d trial %d", run, t)
		}
	}
	estimate := est.Mean()
	return RunResult{
		Run:       run,
		Threshold: threshold,
		Estimate:  estimate,
		SD:        est.SD(),
		Error:     estimate - threshold,
	}, nil
}

// percentile uses interpolation where the sample supports it and the nearest
// rank otherwise. stats.Percentile rejects samples where p%*n rounds below 1,
// which any sweep under 20 runs hits at the 5th percentile.
func percentile(xs []float64, p float64) (float64, error) {
	if float64(len(xs))*p/100 < 1 {
		return stats.PercentileNearestRank(xs, p)
	}
	return stats.Percentile(xs, p)
}

func summarize(results []RunResult) (SweepSummary, error) {
	errs := make([]float64, len(results))
	sds := make([]float64, len(results))
	for i, r := range results {
		errs[i] = r.Error
		sds[i] = r.SD
	}

	meanErr, err := stats.Mean(errs)
	if err != nil {
		return SweepSummary{}, err
	}
	medianErr, err := stats.Median(errs)
	if err != nil {
		return SweepSummary{}, err
	}
	errSD, err := stats.StandardDeviation(errs)
	if err != nil {
		return SweepSummary{}, err
	}
	p05, err := percentile(errs, 5)
	if err != nil {
		return SweepSummary{}, err
	}
	p95, err := percentile(errs, 95)
	if err != nil {
		return SweepSummary{}, err
	}
	meanSD, err := stats.Mean(sds)
	if err != nil {
		return SweepSummary{}, err
	}

	return SweepSummary{
		Runs:        len(results),
		MeanError:   meanErr,
		MedianError: medianErr,
		ErrorSD:     errSD,
		P05Error:    p05,
		P95Error:    p95,
		MeanFinalSD: meanSD,
	}, nil
}

// BetaPoint is one candidate steepness evaluated against the trial history
type BetaPoint struct {
	Beta    float64 `json:"beta"`
	Mean    float64 `json:"mean"`
	SD      float64 `json:"sd"`
	Density float64 `json:"density"` // posterior density at the mean estimate
}

// BetaAnalysis is the result of re-fitting the trial history with steepness
// as a free parameter
type BetaAnalysis struct {
	Points       []BetaPoint `json:"points"`
	Threshold    float64     `json:"threshold"`     // estimate at the best-supported beta
	ThresholdSD  float64     `json:"threshold_sd"`  // posterior sd at that beta
	BetaMean     float64     `json:"beta_mean"`     // density-weighted mean beta
	BetaSD       float64     `json:"beta_sd"`       // density-weighted sd of beta
	BetaEstimate float64     `json:"beta_estimate"` // 1 / E[1/beta], the classic point estimate
}

// betaGrain and betaDim coarsen the refit grids: sixteen posteriors are
// rebuilt per analysis, and threshold resolution is not the goal here.
const (
	betaGrain = 0.02
	betaRange = 5.0
)

// AnalyzeBeta re-fits the estimator's history under sixteen candidate
// steepness values (2^0.25 .. 2^4) and weighs them by how well each explains
// the data.
func (s *SweepService) AnalyzeBeta(ctx context.Context, est *quest.Estimator) (*BetaAnalysis, error) {
	const candidates = 16
	points := make([]BetaPoint, candidates)

	sem := semaphore.NewWeighted(4)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i := 0; i < candidates; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)

			p := est.Params()
			p.Beta = math.Pow(2, float64(i+1)/4)
			p.Grain = betaGrain
			p.Range = betaRange
			refit, err := est.Refit(p)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "beta %.3f", p.Beta)
				}
				mu.Unlock()
				return
			}
			mean := refit.Mean()
			points[i] = BetaPoint{
				Beta:    p.Beta,
				Mean:    mean,
				SD:      refit.SD(),
				Density: refit.DensityAt(mean),
			}
		}(i)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	var pSum, betaSum, betaSqSum, invBetaSum float64
	best := 0
	for i, pt := range points {
		if pt.Density > points[best].Density {
			best = i
		}
		pSum += pt.Density
		betaSum += pt.Density * pt.Beta
		betaSqSum += pt.Density * pt.Beta * pt.Beta
		invBetaSum += pt.Density / pt.Beta
	}
	if pSum == 0 {
		return nil, errors.New("BETA_DEGENERATE", "all candidate betas have zero posterior support")
	}

	betaMean := betaSum / pSum
	return &BetaAnalysis{
		Points:       points,
		Threshold:    points[best].Mean,
		ThresholdSD:  points[best].SD,
		BetaMean:     betaMean,
		BetaSD:       math.Sqrt(betaSqSum/pSum - betaMean*betaMean),
		BetaEstimate: pSum / invBetaSum,
	}, nil
}
