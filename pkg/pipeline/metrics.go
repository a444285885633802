package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/loader"
)

// StageMetrics tracks one stage execution
type StageMetrics struct {
	Stage     Stage
	Table     string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
}

// Duration returns the duration of the stage
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// TableMetrics tracks what happened to one source table
type TableMetrics struct {
	Table         string
	Source        loader.Source
	RowsLoaded    int
	RowsCleaned   int
	ValuesChanged int
}

// RunMetrics tracks metrics for a pipeline run
type RunMetrics struct {
	mu          sync.Mutex
	logger      *zap.Logger
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	Stages      []*StageMetrics
	Tables      map[string]*TableMetrics
	ReportFiles int
	ErrorKind   ErrorKind
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunMetrics{
		logger:    logger,
		RunID:     runID,
		StartTime: time.Now(),
		Stages:    make([]*StageMetrics, 0, 8),
		Tables:    make(map[string]*TableMetrics),
	}
}

// StartStage begins tracking a stage and returns its metrics
func (rm *RunMetrics) StartStage(stage Stage, table string) *StageMetrics {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm := &StageMetrics{Stage: stage, Table: table, StartTime: time.Now()}
	rm.Stages = append(rm.Stages, sm)

	rm.logger.Debug("Started stage",
		zap.String("stage", string(stage)),
		zap.String("table", table))
	return sm
}

// EndStage completes tracking a stage
func (rm *RunMetrics) EndStage(sm *StageMetrics, err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm.EndTime = time.Now()
	sm.Success = err == nil

	rm.logger.Info("Completed stage",
		zap.String("stage", string(sm.Stage)),
		zap.String("table", sm.Table),
		zap.Bool("success", sm.Success),
		zap.Duration("duration", sm.Duration()))
}

func (rm *RunMetrics) table(name string) *TableMetrics {
	tm, ok := rm.Tables[name]
	if !ok {
		tm = &TableMetrics{Table: name}
		rm.Tables[name] = tm
	}
	return tm
}

// RecordLoad records the rows read for a table and where they came from
func (rm *RunMetrics) RecordLoad(table string, source loader.Source, rows int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	tm := rm.table(table)
	tm.Source = source
	tm.RowsLoaded = rows
}

// RecordClean records the rows kept and values changed by cleaning a table
func (rm *RunMetrics) RecordClean(table string, rows, valuesChanged int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	tm := rm.table(table)
	tm.RowsCleaned = rows
	tm.ValuesChanged = valuesChanged
}

// RecordReports records the number of report files written
func (rm *RunMetrics) RecordReports(files int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.ReportFiles = files
}

// Complete marks the run as finished with the given outcome
func (rm *RunMetrics) Complete(err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.EndTime = time.Now()
	rm.ErrorKind = KindOf(err)
}

// Succeeded reports whether the run completed without error
func (rm *RunMetrics) Succeeded() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return !rm.EndTime.IsZero() && rm.ErrorKind == ErrorKindNone
}

// Duration returns the run duration so far
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// tableNames returns the tracked tables in sorted order
func (rm *RunMetrics) tableNames() []string {
	names := make([]string, 0, len(rm.Tables))
	for name := range rm.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport creates a text summary of the run
func (rm *RunMetrics) GenerateMetricsReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	status := "succeeded"
	if rm.ErrorKind != ErrorKindNone {
		status = "failed (" + rm.ErrorKind.String() + ")"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `
Run Metrics Report
==================
Run ID:        %s
Status:        %s
Duration:      %s
Report files:  %d

Tables:
`, rm.RunID, status, formatDuration(rm.Duration()), rm.ReportFiles)

	for _, name := range rm.tableNames() {
		tm := rm.Tables[name]
		fmt.Fprintf(&sb, "- %s: %d rows from %s, %d rows cleaned, %d values changed\n",
			name, tm.RowsLoaded, tm.Source, tm.RowsCleaned, tm.ValuesChanged)
	}

	sb.WriteString("\nStages:\n")
	for _, sm := range rm.Stages {
		label := string(sm.Stage)
		if sm.Table != "" {
			label += " " + sm.Table
		}
		result := "ok"
		if !sm.Success {
			result = "failed"
		}
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", label, formatDuration(sm.Duration()), result)
	}
	return sb.String()
}
