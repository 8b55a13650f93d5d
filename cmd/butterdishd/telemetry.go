package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"butterdish-backend/lib/restyutil"
	"butterdish-backend/lib/scrapers/givebutter"
	"butterdish-backend/lib/serviceutil"
	"butterdish-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "butterdishd")
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("telemetry.json5 not found, otlp export disabled")
		return
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}

func InstrumentScraper(scraper *givebutter.Client, verbose bool) {
	if !verbose {
		return
	}
	scraper.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/givebutter"),
	)
}
