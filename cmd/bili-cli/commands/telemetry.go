package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jishux2/bilibili-api/lib/osutil"
	"github.com/jishux2/bilibili-api/lib/proxyfetch"
	"github.com/jishux2/bilibili-api/lib/proxypool"
	"github.com/jishux2/bilibili-api/lib/restyutil"
	"github.com/jishux2/bilibili-api/lib/session"
	"github.com/jishux2/bilibili-api/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "bili-cli")
	if errors.Is(err, os.ErrNotExist) {
		// running without a telemetry.json5 is fine, spans just go
		// nowhere
		err = nil
	}
	if err != nil {
		osutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	session.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/session"),
	)
	proxypool.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/proxypool"),
	)
	proxyfetch.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/proxyfetch"),
	)
}
