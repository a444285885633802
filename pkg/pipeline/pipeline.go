// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/connector"
	"github.com/David-Botos/sales-etl/pkg/loader"
	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/report"
	"github.com/David-Botos/sales-etl/pkg/verify"
)

// Result holds everything a successful run produced
type Result struct {
	Customers    *model.Dataset
	Sales        *model.Dataset
	Verification *verify.VerificationReport
	Report       *report.Result
	Metrics      *RunMetrics
}

// Runner orchestrates a run: load customers, load sales, clean both,
// verify, write reports. Stages run one after another on the calling
// goroutine and the first failure ends the run.
type Runner struct {
	conn      connector.DatabaseConnector
	loader    *loader.Loader
	cleaner   *cleaner.DataCleaner
	verifier  *verify.Verifier
	generator *report.Generator
	pusher    *MetricsPusher
	runID     string
	logger    *zap.Logger
}

// NewRunner creates a new runner. conn may be nil when every table is
// served from the cache.
func NewRunner(
	conn connector.DatabaseConnector,
	ld *loader.Loader,
	dc *cleaner.DataCleaner,
	verifier *verify.Verifier,
	generator *report.Generator,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		conn:      conn,
		loader:    ld,
		cleaner:   dc,
		verifier:  verifier,
		generator: generator,
		logger:    logger,
	}
}

// WithPusher publishes the run metrics to a Pushgateway when the run ends
func (r *Runner) WithPusher(p *MetricsPusher) *Runner {
	r.pusher = p
	return r
}

// WithRunID sets the identifier reported in the run metrics
func (r *Runner) WithRunID(id string) *Runner {
	r.runID = id
	return r
}

// Run executes the pipeline. Any error is a *StageError.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	metrics := NewRunMetrics(r.runID, r.logger)
	result := &Result{Metrics: metrics}

	err := r.run(ctx, metrics, result)
	metrics.Complete(err)

	r.logger.Info(metrics.GenerateMetricsReport())
	if r.pusher != nil {
		if pushErr := r.pusher.Push(metrics); pushErr != nil {
			r.logger.Warn("Failed to push run metrics", zap.Error(pushErr))
		}
	}

	if err != nil {
		r.logger.Error("Run failed",
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
		return nil, err
	}
	r.logger.Info("Run completed", zap.Duration("duration", metrics.Duration()))
	return result, nil
}

func (r *Runner) run(ctx context.Context, metrics *RunMetrics, result *Result) error {
	// stage runs fn under metrics and wraps its error
	stage := func(s Stage, table string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return NewStageError(s, table, err)
		}
		sm := metrics.StartStage(s, table)
		err := fn()
		metrics.EndStage(sm, err)
		if err != nil {
			return NewStageError(s, table, err)
		}
		return nil
	}

	raw := make(map[string]*model.Dataset, 2)
	for _, table := range []string{model.TableCustomers, model.TableSales} {
		if err := stage(StageLoad, table, func() error {
			ds, source, err := r.loader.Load(ctx, r.conn, table)
			if err != nil {
				return err
			}
			raw[table] = ds
			metrics.RecordLoad(table, source, ds.Len())
			return nil
		}); err != nil {
			return err
		}
	}

	cleaned := make(map[string]*model.Dataset, 2)
	for _, table := range []string{model.TableCustomers, model.TableSales} {
		if err := stage(StageClean, table, func() error {
			ds, summary, err := r.cleaner.CleanRows(raw[table], table)
			if err != nil {
				return err
			}
			cleaned[table] = ds
			metrics.RecordClean(table, ds.Len(), summary.Total())
			return nil
		}); err != nil {
			return err
		}
	}
	result.Customers = cleaned[model.TableCustomers]
	result.Sales = cleaned[model.TableSales]

	if err := stage(StageVerify, "", func() error {
		vr, err := r.verifier.Verify(result.Customers, result.Sales)
		result.Verification = vr
		return err
	}); err != nil {
		return err
	}

	if err := stage(StageReport, "", func() error {
		rr, err := r.generator.Generate(result.Customers, result.Sales)
		if err != nil {
			return err
		}
		result.Report = rr
		metrics.RecordReports(len(rr.Files))
		return nil
	}); err != nil {
		return err
	}
	return nil
}
