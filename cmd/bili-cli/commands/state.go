package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jishux2/bilibili-api/lib/configutil"
	"github.com/jishux2/bilibili-api/lib/credential"
	"github.com/jishux2/bilibili-api/lib/keychain"
	"github.com/jishux2/bilibili-api/lib/osutil"
	"github.com/jishux2/bilibili-api/lib/pagestate"
	"github.com/jishux2/bilibili-api/lib/shortlink"
	"github.com/jishux2/bilibili-api/lib/sqliteutil"

	"github.com/spf13/cobra"
)

var stateProxy *bool
var stateResolve *bool
var stateCred *string
var stateDb *string
var stateOut *string

func init() {
	stateProxy = stateCmd.Flags().Bool("proxy", pagestate.UseProxyFromEnv(), "Route the request through the public proxy pool.")
	stateResolve = stateCmd.Flags().Bool("resolve", false, "Resolve b23.tv style short links before fetching.")
	stateCred = stateCmd.Flags().String("cred", "", "The name of a stored credential to send along.")
	stateDb = stateCmd.Flags().String("db", "keychain.db", "The credential database to read from.")
	stateOut = stateCmd.Flags().String("out", "", "Write the extracted state to a file instead of stdout.")
	rootCmd.AddCommand(stateCmd)
}

// stateConfig supplies defaults for the state command from a bili.json5
// file in the working directory. Explicitly passed flags win over it.
type stateConfig struct {
	UseProxy bool   `json:"use_proxy"`
	Cred     string `json:"cred"`
	Database string `json:"database"`
}

func readStateConfig() stateConfig {
	config, err := configutil.ReadConfig[stateConfig]("bili.json5")
	if errors.Is(err, os.ErrNotExist) {
		return stateConfig{}
	}
	if err != nil {
		osutil.Fatal("read bili.json5", err)
	}
	return config
}

func loadCredential(ctx context.Context, name, dbpath string) *credential.Credential {
	if name == "" {
		return nil
	}

	db, err := sqliteutil.OpenDB(keychain.Schema, dbpath)
	if err != nil {
		osutil.Fatal("open credential database", err)
	}
	defer db.Close()

	entry, err := keychain.NewStore(db).Get(ctx, name)
	if err != nil {
		osutil.Fatal("load credential", err)
	}
	return &entry.Credential
}

var stateCmd = &cobra.Command{
	Use:   "state <url>",
	Short: "Fetches a page and prints the server-embedded state it carries.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readStateConfig()

		useProxy := *stateProxy
		if !cmd.Flags().Changed("proxy") && config.UseProxy {
			useProxy = true
		}
		credName := *stateCred
		if credName == "" {
			credName = config.Cred
		}
		dbPath := *stateDb
		if !cmd.Flags().Changed("db") && config.Database != "" {
			dbPath = config.Database
		}

		url := args[0]
		if *stateResolve {
			resolved, err := shortlink.Resolve(ctx, nil, url)
			if err != nil {
				osutil.Fatal("resolve short link", err)
			}
			if resolved != url {
				slog.Info("resolved short link", "url", resolved)
			}
			url = resolved
		}

		cred := loadCredential(ctx, credName, dbPath)

		client := pagestate.NewClient(pagestate.Options{UseProxy: useProxy})
		state, err := client.Get(ctx, url, cred)
		if err != nil {
			osutil.Fatal("fetch page state", err)
		}

		slog.Info("extracted embedded state", "format", state.Format.String())

		out, err := json.MarshalIndent(state.Data, "", "  ")
		if err != nil {
			osutil.Fatal("render state", err)
		}
		if *stateOut != "" {
			err = os.WriteFile(*stateOut, append(out, '\n'), 0644)
			if err != nil {
				osutil.Fatal("write output file", err)
			}
			slog.Info("wrote embedded state", "path", *stateOut)
			return
		}
		fmt.Println(string(out))
	},
}
