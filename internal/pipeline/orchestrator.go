// Package pipeline coordinates the analytics recompute: one snapshot in,
// parallel engines, serialized write-backs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cortexbi/cortex/internal/abc"
	"github.com/cortexbi/cortex/internal/attribution"
	"github.com/cortexbi/cortex/internal/churn"
	"github.com/cortexbi/cortex/internal/cohort"
	"github.com/cortexbi/cortex/internal/contracts"
	"github.com/cortexbi/cortex/internal/segmentation"
	"github.com/cortexbi/cortex/pkg/logger"
)

// Snapshot is the point-in-time input every engine reads. It is loaded
// once per run and never mutated afterwards.
type Snapshot struct {
	AsOf      time.Time
	Customers []contracts.Customer
	Orders    []contracts.Order
	Products  []contracts.Product
	Campaigns []contracts.Campaign
}

// Sources groups the snapshot loaders.
type Sources struct {
	Customers contracts.CustomerSource
	Orders    contracts.OrderSource
	Products  contracts.ProductSource
	Campaigns contracts.CampaignSource
}

// Sinks groups the derived-attribute write-backs.
type Sinks struct {
	CustomerScores contracts.CustomerScoreSink
	ProductClasses contracts.ProductClassSink
	Cohorts        contracts.CohortSink
	Attributions   contracts.AttributionSink
}

// Orchestrator owns the batch engines and runs a full recompute pass.
type Orchestrator struct {
	segmentation *segmentation.Engine
	cohorts      *cohort.Engine
	classifier   *abc.Classifier
	churn        *churn.Scorer
	matcher      *attribution.Matcher

	sources Sources
	sinks   Sinks

	logger *logger.Logger
}

func NewOrchestrator(
	segEngine *segmentation.Engine,
	cohortEngine *cohort.Engine,
	classifier *abc.Classifier,
	churnScorer *churn.Scorer,
	matcher *attribution.Matcher,
	sources Sources,
	sinks Sinks,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		segmentation: segEngine,
		cohorts:      cohortEngine,
		classifier:   classifier,
		churn:        churnScorer,
		matcher:      matcher,
		sources:      sources,
		sinks:        sinks,
		logger:       log,
	}
}

// RunResult reports what one recompute pass produced.
type RunResult struct {
	RunID           string
	AsOf            time.Time
	Success         bool
	Error           error
	CompletedStages []string

	ScoredCustomers  int
	ChurnFlags       int
	ClassifiedItems  int
	CohortCells      int
	AttributionRows  int
	SnapshotDuration time.Duration
	ComputeDuration  time.Duration
	WriteDuration    time.Duration
	Duration         time.Duration
}

// engineOutputs collects what the parallel stage produced.
type engineOutputs struct {
	mu sync.Mutex

	scores  []contracts.CustomerScores
	flags   []contracts.ChurnFlag
	classes []contracts.ProductClass
	cohorts []contracts.CohortMetric
	rows    []contracts.Attribution

	errs []error
}

// Run executes one full recompute: load the snapshot, run the five batch
// engines in parallel over it, then apply the write-backs serially so no
// reader ever observes a partial ranking.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		RunID: GenerateRunID(),
		AsOf:  start.UTC(),
	}

	o.logger.WithField("run_id", result.RunID).Info("Starting analytics recompute")

	snap, err := o.loadSnapshot(ctx, result.AsOf)
	if err != nil {
		result.Error = fmt.Errorf("snapshot failed: %w", err)
		return result, result.Error
	}
	result.SnapshotDuration = time.Since(start)
	result.CompletedStages = append(result.CompletedStages, "snapshot")

	computeStart := time.Now()
	out := o.compute(snap)
	if len(out.errs) > 0 {
		result.Error = fmt.Errorf("compute failed: %w", out.errs[0])
		return result, result.Error
	}
	result.ComputeDuration = time.Since(computeStart)
	result.CompletedStages = append(result.CompletedStages, "compute")

	writeStart := time.Now()
	if err := o.writeBack(ctx, out); err != nil {
		result.Error = fmt.Errorf("write-back failed: %w", err)
		return result, result.Error
	}
	result.WriteDuration = time.Since(writeStart)
	result.CompletedStages = append(result.CompletedStages, "write-back")

	result.ScoredCustomers = len(out.scores)
	result.ChurnFlags = len(out.flags)
	result.ClassifiedItems = len(out.classes)
	result.CohortCells = len(out.cohorts)
	result.AttributionRows = len(out.rows)
	result.Success = true
	result.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   result.RunID,
		"duration": result.Duration.Seconds(),
		"scored":   result.ScoredCustomers,
		"cohorts":  result.CohortCells,
	}).Info("Analytics recompute completed")

	return result, nil
}

func (o *Orchestrator) loadSnapshot(ctx context.Context, asOf time.Time) (*Snapshot, error) {
	customers, err := o.sources.Customers.CustomersWithOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	orders, err := o.sources.Orders.AllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	products, err := o.sources.Products.AllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	campaigns, err := o.sources.Campaigns.AllCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}

	return &Snapshot{
		AsOf:      asOf,
		Customers: customers,
		Orders:    orders,
		Products:  products,
		Campaigns: campaigns,
	}, nil
}

// compute fans the engines out over the immutable snapshot. No engine
// reads another's output within a pass, so they are free to run
// concurrently; each owns its working copies.
func (o *Orchestrator) compute(snap *Snapshot) *engineOutputs {
	out := &engineOutputs{}
	var wg sync.WaitGroup

	run := func(stage string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				out.mu.Lock()
				out.errs = append(out.errs, fmt.Errorf("%s: %w", stage, err))
				out.mu.Unlock()
			}
		}()
	}

	run("segmentation", func() error {
		scores, err := o.segmentation.Score(snap.Customers)
		if errors.Is(err, contracts.ErrInsufficientData) {
			o.logger.Warn("segmentation skipped: no customers with orders")
			return nil
		}
		if err != nil {
			return err
		}
		out.mu.Lock()
		out.scores = scores
		out.mu.Unlock()
		return nil
	})

	run("churn", func() error {
		flags := o.churn.Flags(snap.Customers)
		out.mu.Lock()
		out.flags = flags
		out.mu.Unlock()
		return nil
	})

	run("abc", func() error {
		classes, err := o.classifier.Classify(snap.Products)
		if errors.Is(err, contracts.ErrInsufficientData) {
			o.logger.Warn("classification skipped: no products with revenue")
			return nil
		}
		if err != nil {
			return err
		}
		out.mu.Lock()
		out.classes = classes
		out.mu.Unlock()
		return nil
	})

	run("cohort", func() error {
		grid := o.cohorts.Retention(snap.Customers, snap.Orders, snap.AsOf)
		out.mu.Lock()
		out.cohorts = grid
		out.mu.Unlock()
		return nil
	})

	run("attribution", func() error {
		rows := o.matcher.Match(snap.Orders, snap.Campaigns)
		out.mu.Lock()
		out.rows = rows
		out.mu.Unlock()
		return nil
	})

	wg.Wait()
	return out
}

// writeBack persists the derived attributes one sink at a time. Each sink
// commits a full batch in its own transaction.
func (o *Orchestrator) writeBack(ctx context.Context, out *engineOutputs) error {
	if err := o.sinks.CustomerScores.ApplyScores(ctx, out.scores); err != nil {
		return fmt.Errorf("apply scores: %w", err)
	}
	if err := o.sinks.CustomerScores.ApplyChurnFlags(ctx, out.flags); err != nil {
		return fmt.Errorf("apply churn flags: %w", err)
	}
	if err := o.sinks.ProductClasses.ApplyClasses(ctx, out.classes); err != nil {
		return fmt.Errorf("apply classes: %w", err)
	}
	if err := o.sinks.Cohorts.ReplaceCohortMetrics(ctx, out.cohorts); err != nil {
		return fmt.Errorf("replace cohort metrics: %w", err)
	}
	if err := o.sinks.Attributions.ReplaceAttributions(ctx, contracts.ModelLastClick, out.rows); err != nil {
		return fmt.Errorf("replace attributions: %w", err)
	}
	return nil
}

// GenerateRunID generates a unique run ID.
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}
