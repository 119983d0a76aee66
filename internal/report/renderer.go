package report

import "io"

// Renderer writes a Document in one output format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	ContentType() string
}
