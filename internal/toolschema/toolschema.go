// Package toolschema renders and builds tool schema descriptions for
// inclusion in assembled prompts.
package toolschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kayz/contentkit/internal/content"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// YAMLRenderer renders each tool as a YAML document with name, description
// and parameters. Documents keep input order and are separated by "---".
type YAMLRenderer struct{}

var _ content.SchemaRenderer = YAMLRenderer{}

type renderedTool struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Parameters  any    `yaml:"parameters,omitempty"`
}

// Render implements content.SchemaRenderer.
func (YAMLRenderer) Render(tools []mcp.Tool) (string, error) {
	docs := make([]string, 0, len(tools))
	for _, tool := range tools {
		params, err := parameters(tool)
		if err != nil {
			return "", fmt.Errorf("tool %s: %w", tool.Name, err)
		}

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(renderedTool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		}); err != nil {
			return "", fmt.Errorf("encode tool %s: %w", tool.Name, err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode tool %s: %w", tool.Name, err)
		}
		docs = append(docs, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(docs, "\n---\n"), nil
}

// parameters returns the tool's input schema as a generic value. The raw
// schema wins over the structured one when both are set.
func parameters(tool mcp.Tool) (any, error) {
	if len(tool.RawInputSchema) > 0 {
		var v any
		if err := json.Unmarshal(tool.RawInputSchema, &v); err != nil {
			return nil, fmt.Errorf("decode raw input schema: %w", err)
		}
		return v, nil
	}

	s := tool.InputSchema
	if s.Type == "" && len(s.Properties) == 0 && len(s.Required) == 0 {
		return nil, nil
	}
	out := map[string]any{"type": s.Type}
	if len(s.Properties) > 0 {
		out["properties"] = s.Properties
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out, nil
}

// FromStruct builds a tool whose input schema is reflected from v, which
// must be a struct or a pointer to one.
func FromStruct(name, description string, v any) (mcp.Tool, error) {
	if strings.TrimSpace(name) == "" {
		return mcp.Tool{}, fmt.Errorf("tool name is required")
	}

	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(v)
	if schema == nil || schema.Type != "object" {
		return mcp.Tool{}, fmt.Errorf("tool %s: input must be a struct", name)
	}
	schema.Version = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("tool %s: marshal schema: %w", name, err)
	}
	return mcp.NewToolWithRawSchema(name, description, raw), nil
}

// Parse reads a JSON or YAML list of tool definitions with name,
// description and inputSchema keys.
func Parse(data []byte) ([]mcp.Tool, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tool schemas: %w", err)
	}

	tools := make([]mcp.Tool, 0, len(raw))
	for i, entry := range raw {
		var tool mcp.Tool
		if _, err := content.DecodeNamed(entry, &tool); err != nil {
			return nil, fmt.Errorf("tool %d: %w", i, err)
		}
		if strings.TrimSpace(tool.Name) == "" {
			return nil, fmt.Errorf("tool %d: name is required", i)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
