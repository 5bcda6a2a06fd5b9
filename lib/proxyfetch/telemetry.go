package proxyfetch

import (
	"github.com/jishux2/bilibili-api/lib/restyutil"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("bilibili.lib.proxyfetch")
var meter = otel.Meter("bilibili.lib.proxyfetch")

var attemptCounter, _ = meter.Int64Counter(
	"proxy_attempts_total",
	metric.WithDescription("The total amount of attempts made through proxy candidates."),
)
var exhaustedCounter, _ = meter.Int64Counter(
	"proxy_exhausted_total",
	metric.WithDescription("The total amount of fetches that ran out of candidates."),
)

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput captures http transcripts from the
// short-lived per-attempt clients.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
