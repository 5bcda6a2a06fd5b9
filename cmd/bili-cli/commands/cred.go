package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/jishux2/bilibili-api/lib/credential"
	"github.com/jishux2/bilibili-api/lib/keychain"
	"github.com/jishux2/bilibili-api/lib/osutil"
	"github.com/jishux2/bilibili-api/lib/sqliteutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var credDb *string

var credSessData *string
var credBiliJct *string
var credBuvid3 *string
var credDedeUserID *string
var credAcTimeValue *string

func init() {
	credDb = credCmd.PersistentFlags().String("db", "keychain.db", "The credential database to operate on.")

	credSessData = credSetCmd.Flags().String("sessdata", "", "The SESSDATA cookie value.")
	credBiliJct = credSetCmd.Flags().String("bili-jct", "", "The bili_jct (csrf) cookie value.")
	credBuvid3 = credSetCmd.Flags().String("buvid3", "", "The buvid3 cookie value, generated when left empty.")
	credDedeUserID = credSetCmd.Flags().String("dedeuserid", "", "The DedeUserID cookie value.")
	credAcTimeValue = credSetCmd.Flags().String("ac-time-value", "", "The ac_time_value refresh token.")

	credCmd.AddCommand(credSetCmd)
	credCmd.AddCommand(credListCmd)
	credCmd.AddCommand(credRmCmd)
	rootCmd.AddCommand(credCmd)
}

var credCmd = &cobra.Command{
	Use:   "cred",
	Short: "Manages stored login credentials.",
}

func openStore() (keychain.Store, func()) {
	db, err := sqliteutil.OpenDB(keychain.Schema, *credDb)
	if err != nil {
		osutil.Fatal("open credential database", err)
	}
	return keychain.NewStore(db), func() { db.Close() }
}

var credSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Saves a credential under a name, replacing any previous one.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := openStore()
		defer cleanup()

		cred := credential.Credential{
			SessData:    *credSessData,
			BiliJct:     *credBiliJct,
			Buvid3:      *credBuvid3,
			DedeUserID:  *credDedeUserID,
			AcTimeValue: *credAcTimeValue,
		}
		if cred.Buvid3 == "" {
			generated, err := credential.GenerateBuvid3()
			if err != nil {
				osutil.Fatal("generate buvid3", err)
			}
			cred.Buvid3 = generated
			slog.Info("generated a fresh buvid3", "value", cred.Buvid3)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*5)
		defer cancel()

		err := store.Put(ctx, args[0], cred)
		if err != nil {
			osutil.Fatal("store credential", err)
		}
		slog.Info("stored credential", "name", args[0])
	},
}

var credListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the stored credentials.",
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := openStore()
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*5)
		defer cancel()

		entries, err := store.List(ctx)
		if err != nil {
			osutil.Fatal("list credentials", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Name", "DedeUserID", "SESSDATA", "Updated"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.Name,
				e.Credential.DedeUserID,
				e.Credential.SessData,
				e.UpdatedAt.Format(time.ANSIC),
			})
		}
		t.Render()
	},
}

var credRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Removes stored credentials.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := openStore()
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*5)
		defer cancel()

		for _, name := range args {
			err := store.Delete(ctx, name)
			if err != nil {
				osutil.Fatal("remove credential", err)
			}
			slog.Info("removed credential", "name", name)
		}
	},
}
