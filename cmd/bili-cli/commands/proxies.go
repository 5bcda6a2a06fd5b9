package commands

import (
	"context"
	"time"

	"github.com/jishux2/bilibili-api/lib/proxypool"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(proxiesCmd)
}

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Lists the http proxies the public pool currently offers.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
		defer cancel()

		endpoints := proxypool.NewScrapeAPI().List(ctx)

		t := newTable()
		t.AppendHeader(table.Row{"#", "Proxy"})
		for i, endpoint := range endpoints {
			t.AppendRow(table.Row{i + 1, string(endpoint)})
		}
		t.Render()
	},
}
