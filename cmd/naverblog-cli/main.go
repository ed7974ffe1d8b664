package main

import (
	"context"
	"log/slog"
	"naverblog-scraper/cmd/naverblog-cli/commands"
	"naverblog-scraper/lib/serviceutil"
	"naverblog-scraper/lib/telemetry"
	"os"
	"time"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()

	telemetry.InitSlog(true)
	t, err := telemetry.SetupFromEnv(ctx, "naverblog-cli")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx, time.Second*15)

	err = commands.ExecuteContext(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer shutdownCancel()
	if shutdownErr := t.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
