package pagestate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jishux2/bilibili-api/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Format identifies which embedding convention carried the state.
type Format int

const (
	// FormatInitialState is the classic inline assignment,
	// window.__INITIAL_STATE__={...}; somewhere in a script block.
	FormatInitialState Format = iota + 1
	// FormatNextData is the json script element the newer
	// server-rendered pages hydrate from.
	FormatNextData
)

func (f Format) String() string {
	switch f {
	case FormatInitialState:
		return "initial_state"
	case FormatNextData:
		return "next_data"
	}
	return "unknown"
}

// State pairs the parsed payload with the convention it was found
// under.
type State struct {
	Format Format
	Data   map[string]any
}

// the capture is non-greedy and the dot stops at newlines, otherwise
// it would glue together everything up to the last `};` on the page
var initialStateRegex = regexp.MustCompile(`window\.__INITIAL_STATE__=(\{.*?\});`)

// Extract locates the server-embedded json state in raw page markup.
// The inline window.__INITIAL_STATE__ assignment is checked first and
// always wins, a page carrying both conventions resolves to it no
// matter where each appears in the document.
func Extract(text string) (State, error) {
	format := FormatInitialState
	var payload string

	groups := initialStateRegex.FindStringSubmatch(text)
	if groups != nil {
		payload = groups[1]
	} else {
		format = FormatNextData
		var found bool
		payload, found = findNextData(text)
		if !found {
			return State{}, wrapError(
				KindStateNotFound,
				fmt.Errorf("no embedded state in %d bytes of markup", len(text)),
			)
		}
	}

	var data map[string]any
	err := json.Unmarshal([]byte(payload), &data)
	if err != nil {
		return State{}, wrapError(KindStateUnparsable, err)
	}

	return State{Format: format, Data: data}, nil
}

// findNextData returns the trimmed inner text of the json script
// element. A present-but-empty element still counts as found, the
// payload just won't parse.
func findNextData(text string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", false
	}

	sel := doc.Find(`script#__NEXT_DATA__[type="application/json"]`)
	if len(sel.Nodes) == 0 {
		return "", false
	}
	return strings.TrimSpace(htmlutil.GetText(sel.Nodes[0])), true
}
