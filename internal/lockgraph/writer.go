package lockgraph

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// Graph output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Writer serializes a lock graph.
type Writer interface {
	Write(g *Graph, w io.Writer) error

	// Extension is the file extension for the format, including the dot.
	Extension() string
}

// NewWriter returns the writer for a format name.
func NewWriter(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatDOT:
		return NewDOTWriter(), nil
	case FormatJSON:
		return NewPrettyJSONWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported graph format: %s", format)
	}
}

// JSONWriter writes lock graphs as JSON.
type JSONWriter struct {
	// Indent specifies the indentation for pretty printing.
	Indent string
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter() *JSONWriter {
	return &JSONWriter{Indent: "  "}
}

// Write writes the graph as JSON to the writer.
func (w *JSONWriter) Write(g *Graph, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(g)
}

// Extension returns ".json".
func (w *JSONWriter) Extension() string {
	return ".json"
}

// DOTWriter writes lock graphs in Graphviz DOT format. Thread nodes are
// HTML-like tables with one row per stack frame; monitor nodes are implied
// by the edges.
type DOTWriter struct{}

// NewDOTWriter creates a new DOT format writer.
func NewDOTWriter() *DOTWriter {
	return &DOTWriter{}
}

// Extension returns ".gv".
func (w *DOTWriter) Extension() string {
	return ".gv"
}

// Write writes the graph in DOT format. Included threads come first, then
// the edges, then the extra threads.
func (w *DOTWriter) Write(g *Graph, writer io.Writer) error {
	if _, err := fmt.Fprintln(writer, "digraph ThreadsAndLocks {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "  label=\"%s\"\n", escapeQuotes(g.Label)); err != nil {
		return err
	}

	for _, node := range g.Nodes {
		if node.Extra {
			continue
		}
		if err := writeNode(writer, node); err != nil {
			return err
		}
	}

	for _, edge := range g.Edges {
		if _, err := fmt.Fprintf(writer, "  %s:%s -> \"%s\" [color=%s]\n",
			edge.ThreadID, edge.Port, escapeQuotes(edge.MonitorID), edge.Color); err != nil {
			return err
		}
	}

	for _, node := range g.Nodes {
		if !node.Extra {
			continue
		}
		if err := writeNode(writer, node); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(writer, "}")
	return err
}

func writeNode(writer io.Writer, node *Node) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s [\n    shape=none\n    label=<<TABLE>", node.ThreadID)
	for _, row := range node.Rows {
		switch {
		case row.Port != "":
			fmt.Fprintf(&sb, `<TR><TD ALIGN="LEFT" PORT="%s">%s</TD></TR>`, row.Port, EscapeHTML(row.Text))
		case row.Frame:
			fmt.Fprintf(&sb, `<TR><TD ALIGN="LEFT">%s</TD></TR>`, EscapeHTML(row.Text))
		default:
			fmt.Fprintf(&sb, `<TR><TD>%s</TD></TR>`, EscapeHTML(row.Text))
		}
	}
	sb.WriteString("</TABLE>>\n  ]\n")
	_, err := io.WriteString(writer, sb.String())
	return err
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters that are special inside an HTML-like label.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
