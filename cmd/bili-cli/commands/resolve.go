package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jishux2/bilibili-api/lib/osutil"
	"github.com/jishux2/bilibili-api/lib/shortlink"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Follows a b23.tv style short link and prints where it lands.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
		defer cancel()

		resolved, err := shortlink.Resolve(ctx, nil, args[0])
		if err != nil {
			osutil.Fatal("resolve short link", err)
		}
		fmt.Println(resolved)
	},
}
