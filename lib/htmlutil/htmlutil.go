package htmlutil

import (
	"strings"

	"golang.org/x/net/html"
)

// GetText returns the concatenated text content of a node and all of
// its descendants, in document order.
func GetText(node *html.Node) string {
	var out strings.Builder

	stack := []*html.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
			continue
		}
		// push children in reverse so the leftmost is visited first
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return out.String()
}
