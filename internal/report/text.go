package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextRenderer lays a Document out as plain text.
type TextRenderer struct{}

// ContentType implements Renderer.
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render implements Renderer.
func (TextRenderer) Render(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n%s\n\n", doc.Title, strings.Repeat("=", len(doc.Title)))

	writeHeading(bw, doc.StatsHeading)
	for _, f := range doc.Stats {
		fmt.Fprintf(bw, "%s: %s\n", f.Label, f.Value)
	}
	bw.WriteString("\n")

	writeHeading(bw, doc.OrdersHeading)
	if len(doc.Orders) == 0 {
		bw.WriteString("No orders yet.\n")
	}
	for _, b := range doc.Orders {
		fmt.Fprintf(bw, "%s\n", b.Title)
		for _, f := range b.Fields {
			fmt.Fprintf(bw, "  %s: %s\n", f.Label, f.Value)
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

func writeHeading(w io.Writer, heading string) {
	fmt.Fprintf(w, "%s\n%s\n", heading, strings.Repeat("-", len(heading)))
}
