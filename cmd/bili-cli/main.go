package main

import (
	"context"

	"github.com/jishux2/bilibili-api/cmd/bili-cli/commands"
	"github.com/jishux2/bilibili-api/lib/osutil"
)

func main() {
	ctx := osutil.SignalContext(context.Background())
	commands.ExecuteContext(ctx)
}
