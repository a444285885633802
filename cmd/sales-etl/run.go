package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/connector"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/loader"
	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/pipeline"
	"github.com/David-Botos/sales-etl/pkg/report"
	"github.com/David-Botos/sales-etl/pkg/verify"
)

type runFlags struct {
	useCache  bool
	cacheDir  string
	outputDir string
}

func newRunCmd(global *globalFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL: load, clean, verify and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := global.loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cache") {
				settings.UseCache = flags.useCache
			}
			if cmd.Flags().Changed("cache-dir") {
				settings.CacheDir = flags.cacheDir
			}
			if cmd.Flags().Changed("output-dir") {
				settings.OutputDir = flags.outputDir
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return runETL(cmd, settings)
		},
	}

	cmd.Flags().BoolVar(&flags.useCache, "cache", false, "Read tables from cache files when they exist")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "Directory for table cache files")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory the reports are written to (recreated each run)")
	return cmd
}

func runETL(cmd *cobra.Command, settings *config.Settings) error {
	ctx := cmd.Context()

	logger, err := newLogger(settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	logger.Info("Starting run",
		zap.String("config_dir", settings.ConfigDir),
		zap.String("output_dir", settings.OutputDir),
		zap.Bool("use_cache", settings.UseCache))

	schema, err := config.LoadSchema(settings.ConfigDir)
	if err != nil {
		logger.Error("Invalid data types", zap.Error(err))
		return err
	}
	connCfg, err := config.LoadConnection(settings.ConfigDir)
	if err != nil {
		logger.Error("Invalid connection config", zap.Error(err))
		return err
	}

	ld := loader.New(loader.Options{
		CacheDir: settings.CacheDir,
		UseCache: settings.UseCache,
		Timeout:  settings.QueryTimeout,
	}, logger.Named("loader"))

	// The database is only contacted when some table is not served from the cache
	var conn connector.DatabaseConnector
	if !ld.CacheHit(model.TableCustomers) || !ld.CacheHit(model.TableSales) {
		conn, err = connector.NewConnectorFactory(connCfg, logger.Named("connector")).Create(ctx)
		if err != nil {
			logger.Error("Failed to connect", zap.String("source", connCfg.Redacted()), zap.Error(err))
			return err
		}
		defer conn.Close()

		if err := conn.Validate(ctx); err != nil {
			return err
		}
	}

	dc, err := cleaner.NewDataCleaner(schema, converter.NewTypeConverter(logger.Named("converter")), logger.Named("cleaner"))
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(
		conn,
		ld,
		dc,
		verify.NewVerifier(logger.Named("verifier")),
		report.NewGenerator(settings.OutputDir, logger.Named("report")),
		logger.Named("pipeline"),
	).WithRunID(runID)

	if settings.PushgatewayURL != "" {
		pusher, err := pipeline.NewMetricsPusher(settings.PushgatewayURL, pipeline.DefaultJobName)
		if err != nil {
			return err
		}
		runner.WithPusher(pusher)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	for _, path := range result.Report.Files {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
