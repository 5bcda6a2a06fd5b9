package proxypool

import (
	"github.com/jishux2/bilibili-api/lib/restyutil"
	"github.com/jishux2/bilibili-api/lib/telemetry"
)

var tracer = telemetry.Tracer("bilibili.lib.proxypool")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput captures http transcripts from listing
// clients constructed after this call.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
