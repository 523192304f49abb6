// Package content assembles chat-style content payloads (one optional text
// item followed by image items) from a bundle of optional named inputs.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// SchemaRenderer turns tool schemas into the text spliced under the
// "Tool Schemas" heading.
type SchemaRenderer interface {
	Render(tools []mcp.Tool) (string, error)
}

// SchemaRendererFunc adapts a function to SchemaRenderer.
type SchemaRendererFunc func(tools []mcp.Tool) (string, error)

func (f SchemaRendererFunc) Render(tools []mcp.Tool) (string, error) { return f(tools) }

// RequestFieldsNotice precedes the JSON block of requested fields.
const RequestFieldsNotice = "**MUST RETURN JSON-PARSEABLE RESPONSE ENCLOSED BY JSON CODE BLOCKS.** Respond with the following fields:"

// Assembler builds payloads. It is immutable after New and safe for
// concurrent use.
type Assembler struct {
	schemas SchemaRenderer
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithSchemaRenderer sets the tool schema renderer.
func WithSchemaRenderer(r SchemaRenderer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.schemas = r
		}
	}
}

// New creates an Assembler. Without a renderer, tool schemas are written as
// indented JSON.
func New(opts ...Option) *Assembler {
	a := &Assembler{schemas: SchemaRendererFunc(renderToolsJSON)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAssembler = New()

// Assemble runs the default Assembler.
func Assemble(in Inputs) (Items, error) {
	return defaultAssembler.Assemble(in)
}

// section is one optional block of the composed text, in fixed order.
type section struct {
	title   string
	present func(Inputs) bool
	render  func(*Assembler, Inputs) (string, error)
}

var sections = []section{
	{
		title:   "Guidance",
		present: func(in Inputs) bool { return hasText(in.Guidance) },
		render:  func(_ *Assembler, in Inputs) (string, error) { return in.Guidance, nil },
	},
	{
		title:   "Instruction",
		present: func(in Inputs) bool { return hasText(in.Instruction) },
		render:  func(_ *Assembler, in Inputs) (string, error) { return in.Instruction, nil },
	},
	{
		title:   "Context",
		present: func(in Inputs) bool { return len(in.Context) > 0 },
		render:  func(_ *Assembler, in Inputs) (string, error) { return renderBullets(in.Context), nil },
	},
	{
		title:   "Tool Schemas",
		present: func(in Inputs) bool { return len(in.ToolSchemas) > 0 },
		render: func(a *Assembler, in Inputs) (string, error) {
			out, err := a.schemas.Render(in.ToolSchemas)
			if err != nil {
				return "", fmt.Errorf("render tool schemas: %w", err)
			}
			return out, nil
		},
	},
	{
		title:   "Requested Fields",
		present: func(in Inputs) bool { return len(in.RequestFields) > 0 },
		render:  func(_ *Assembler, in Inputs) (string, error) { return renderRequestFields(in.RequestFields) },
	},
	{
		title:   "Response Format",
		present: func(in Inputs) bool { return hasText(in.RequestResponseFormat) },
		render:  func(_ *Assembler, in Inputs) (string, error) { return in.RequestResponseFormat, nil },
	},
}

// Sections returns the titles of the sections Compose would render for in.
// It is empty when PlainContent takes precedence.
func Sections(in Inputs) []string {
	if in.PlainContent != "" {
		return nil
	}
	var titles []string
	for _, s := range sections {
		if s.present(in) {
			titles = append(titles, s.title)
		}
	}
	return titles
}

// Compose returns the text block for in: PlainContent verbatim, or the
// present sections joined and trimmed.
func (a *Assembler) Compose(in Inputs) (string, error) {
	if in.PlainContent != "" {
		return in.PlainContent, nil
	}

	var out strings.Builder
	for _, s := range sections {
		if !s.present(in) {
			continue
		}
		body, err := s.render(a, in)
		if err != nil {
			return "", err
		}
		out.WriteString("## ")
		out.WriteString(s.title)
		out.WriteString("\n")
		out.WriteString(body)
		out.WriteString("\n\n")
	}
	return strings.TrimSpace(out.String()), nil
}

// Assemble builds the payload for in. The result is never nil.
func (a *Assembler) Assemble(in Inputs) (Items, error) {
	text, err := a.Compose(in)
	if err != nil {
		return nil, err
	}

	items := make(Items, 0, len(in.Images)+1)
	if text != "" {
		items = append(items, TextItem(text))
	}

	detail := in.ImageDetail
	if detail == "" {
		detail = DetailAuto
	}
	for _, img := range in.Images {
		items = append(items, ImageItem(img, detail))
	}
	return items, nil
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func renderBullets(entries []string) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(e)
	}
	return b.String()
}

func renderRequestFields(fields map[string]any) (string, error) {
	data, err := marshalIndent(fields)
	if err != nil {
		return "", fmt.Errorf("encode request fields: %w", err)
	}
	return RequestFieldsNotice + "\n```json\n" + string(data) + "\n```", nil
}

func renderToolsJSON(tools []mcp.Tool) (string, error) {
	data, err := marshalIndent(tools)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// marshalIndent encodes v with two-space indent and without HTML escaping.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
