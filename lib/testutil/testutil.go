package testutil

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/jishux2/bilibili-api/lib/telemetry"

	_ "modernc.org/sqlite"
)

type StoreParams struct {
	Name string
	// if unspecified, it will skip applying a schema
	Schema string
	// if unspecified, it will use `:memory:`
	Path string
}

type StoreResult struct {
	DB *sql.DB
}

// SetupStore brings up test telemetry and an sqlite database for a
// storage test to run against.
func SetupStore(t testing.TB, params StoreParams) (StoreResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	path := params.Path
	if path == "" {
		path = ":memory:"
	}
	sqlite, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if params.Schema != "" {
		_, err = sqlite.Exec(params.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}

	return StoreResult{
		DB: sqlite,
	}, cleanup
}
