package pagestate

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name         string
		page         string
		expectFormat Format
		expectData   map[string]any
		expectKind   ErrorKind
	}{
		{
			name:         "initial state",
			page:         `<html><body><script>window.__INITIAL_STATE__={"a":1};(function(){window.__setup__()})();</script></body></html>`,
			expectFormat: FormatInitialState,
			expectData:   map[string]any{"a": float64(1)},
		},
		{
			name:         "next data",
			page:         `<html><body><script id="__NEXT_DATA__" type="application/json">{"b":2}</script></body></html>`,
			expectFormat: FormatNextData,
			expectData:   map[string]any{"b": float64(2)},
		},
		{
			name: "initial state wins over next data",
			// the next data element comes first in the document,
			// precedence is by convention not position
			page: `<html><body>` +
				`<script id="__NEXT_DATA__" type="application/json">{"b":2}</script>` +
				`<script>window.__INITIAL_STATE__={"a":1};</script>` +
				`</body></html>`,
			expectFormat: FormatInitialState,
			expectData:   map[string]any{"a": float64(1)},
		},
		{
			name:         "non greedy capture stops at the first terminator",
			page:         `<script>window.__INITIAL_STATE__={"v":{"x":[1,2]}};window.__EXTRA__={"y":3};</script>`,
			expectFormat: FormatInitialState,
			expectData:   map[string]any{"v": map[string]any{"x": []any{float64(1), float64(2)}}},
		},
		{
			name: "next data payload is trimmed",
			page: "<script id=\"__NEXT_DATA__\" type=\"application/json\">\n  {\"b\": {\"c\": 2}}\n  </script>",
			expectFormat: FormatNextData,
			expectData:   map[string]any{"b": map[string]any{"c": float64(2)}},
		},
		{
			name:         "next data attribute order does not matter",
			page:         `<script type="application/json" id="__NEXT_DATA__">{"b":2}</script>`,
			expectFormat: FormatNextData,
			expectData:   map[string]any{"b": float64(2)},
		},
		{
			name:       "neither marker",
			page:       `<html><body><p>404 not found</p></body></html>`,
			expectKind: KindStateNotFound,
		},
		{
			name:       "script with the right id but wrong type",
			page:       `<script id="__NEXT_DATA__" type="text/javascript">{"b":2}</script>`,
			expectKind: KindStateNotFound,
		},
		{
			name:       "initial state does not span lines",
			page:       "<script>window.__INITIAL_STATE__={\"a\":\n1};</script>",
			expectKind: KindStateNotFound,
		},
		{
			name:       "malformed initial state",
			page:       `<script>window.__INITIAL_STATE__={invalid};</script>`,
			expectKind: KindStateUnparsable,
		},
		{
			name:       "empty next data element",
			page:       `<script id="__NEXT_DATA__" type="application/json"></script>`,
			expectKind: KindStateUnparsable,
		},
		{
			name:       "next data is not an object",
			page:       `<script id="__NEXT_DATA__" type="application/json">[1,2]</script>`,
			expectKind: KindStateUnparsable,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			state, err := Extract(test.page)

			if test.expectKind != 0 {
				var perr *Error
				require.ErrorAs(t, err, &perr)
				require.Equal(t, test.expectKind, perr.Kind)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.expectFormat, state.Format)
			diff := cmp.Diff(test.expectData, state.Data)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestExtractErrorChain(t *testing.T) {
	_, err := Extract(`<script>window.__INITIAL_STATE__={invalid};</script>`)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, KindStateUnparsable, perr.Kind)

	// the json parser's diagnostics stay reachable under the wrapper
	var syntaxErr *json.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestFormatString(t *testing.T) {
	require.Equal(t, "initial_state", FormatInitialState.String())
	require.Equal(t, "next_data", FormatNextData.String())
	require.Equal(t, "unknown", Format(0).String())
}
