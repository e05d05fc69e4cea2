package main

import (
	"context"
	"time"

	"github.com/dukaandost/backend/internal/domain/report"
	"github.com/dukaandost/backend/internal/infrastructure/chart"
	"github.com/dukaandost/backend/internal/infrastructure/config"
	"github.com/dukaandost/backend/internal/infrastructure/logger"
	"github.com/dukaandost/backend/internal/infrastructure/storage"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const bucketCheckTimeout = 10 * time.Second

// setupTelemetry starts the OTLP trace, metric and log pipelines and the
// Pyroscope profiler. Failures are logged and leave the no-op providers in
// place. It returns the logger to use from here on (teed to the collector
// when log export is on) and the OTel business metrics, nil when OTLP
// metrics are off.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*zap.Logger, *telemetry.BusinessMetrics, func()) {
	tc := cfg.Telemetry

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize OTLP logs, continuing without them", zap.Error(err))
	}
	log = lp.Bridge(log, tc.ServiceName, logger.ParseLevel(cfg.Log.Level))

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.ExportInterval,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize OTLP metrics, continuing without them", zap.Error(err))
	}

	var business *telemetry.BusinessMetrics
	if mp != nil && mp.IsEnabled() {
		business, err = telemetry.NewBusinessMetrics(mp.Meter(tc.ServiceName))
		if err != nil {
			log.Warn("Failed to register business metrics", zap.Error(err))
			business = nil
		}
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		Mutex:             cfg.Profiling.Mutex,
		Block:             cfg.Profiling.Block,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler, continuing without it", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() && cfg.Profiling.SpanProfiles && tp != nil {
		tp.EnableSpanProfiles()
	}

	shutdown := func() {
		ctx := context.Background()
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				log.Warn("Profiler stop failed", zap.Error(err))
			}
		}
		if tp != nil {
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}
		if mp != nil {
			if err := mp.Shutdown(ctx); err != nil {
				log.Warn("Meter shutdown failed", zap.Error(err))
			}
		}
		if lp != nil {
			if err := lp.Shutdown(ctx); err != nil {
				log.Warn("Log export shutdown failed", zap.Error(err))
			}
		}
	}
	return log, business, shutdown
}

// setupChartRenderer returns the headless Chrome renderer, or the disabled
// renderer when charts are off or the browser cannot be prepared.
func setupChartRenderer(cfg config.ChartConfig, log *zap.Logger) (report.ChartRenderer, func()) {
	if !cfg.Enabled {
		log.Info("Chart rendering disabled")
		return chart.DisabledRenderer{}, func() {}
	}
	renderer, err := chart.NewChromedpRenderer(chart.ChromedpConfig{
		OutputDir: cfg.OutputDir,
		RemoteURL: cfg.RemoteURL,
		NoSandbox: cfg.NoSandbox,
		Timeout:   cfg.Timeout,
	}, log)
	if err != nil {
		log.Warn("Failed to prepare chart renderer, charts disabled", zap.Error(err))
		return chart.DisabledRenderer{}, func() {}
	}
	return renderer, func() {
		if err := renderer.Close(); err != nil {
			log.Warn("Error closing chart renderer", zap.Error(err))
		}
	}
}

// setupChartArchive picks S3 when object storage is enabled, else a local
// directory when one is configured. It returns nil when charts are not kept.
func setupChartArchive(ctx context.Context, cfg *config.Config, log *zap.Logger) report.ChartArchive {
	if !cfg.Chart.Enabled {
		return nil
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ChartArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Warn("Failed to create chart archive, charts will not be archived", zap.Error(err))
			return nil
		}
		if cfg.Storage.CreateBucket {
			checkCtx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
			defer cancel()
			if err := archive.EnsureBucket(checkCtx); err != nil {
				log.Warn("Chart bucket is not available", zap.String("bucket", archive.Bucket()), zap.Error(err))
			}
		}
		return archive
	}
	if cfg.Chart.ArchiveDir != "" {
		return storage.NewDirectoryArchive(cfg.Chart.ArchiveDir)
	}
	return nil
}
