package content

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ItemType is the discriminator of a content item.
type ItemType string

const (
	ItemTypeText     ItemType = "text"
	ItemTypeImageURL ItemType = "image_url"
)

// Image detail levels understood by chat-completion APIs.
const (
	DetailAuto = "auto"
	DetailLow  = "low"
	DetailHigh = "high"
)

// ImageDataURLPrefix is prepended to every base64 image payload.
const ImageDataURLPrefix = "data:image/jpeg;base64,"

// Inputs is the bundle of optional named values an assembly is built from.
// Every field may be left at its zero value.
type Inputs struct {
	// PlainContent, when non-empty, is the whole text block and every other
	// text-producing field is ignored.
	PlainContent string `json:"plain_content,omitempty" yaml:"plain_content,omitempty" mapstructure:"plain_content"`

	Guidance    string   `json:"guidance,omitempty" yaml:"guidance,omitempty" mapstructure:"guidance"`
	Instruction string   `json:"instruction,omitempty" yaml:"instruction,omitempty" mapstructure:"instruction"`
	Context     []string `json:"context,omitempty" yaml:"context,omitempty" mapstructure:"context"`

	// ToolSchemas are rendered by the assembler's SchemaRenderer.
	ToolSchemas []mcp.Tool `json:"tool_schemas,omitempty" yaml:"tool_schemas,omitempty" mapstructure:"tool_schemas"`

	// RequestFields maps a field name to its description.
	RequestFields map[string]any `json:"request_fields,omitempty" yaml:"request_fields,omitempty" mapstructure:"request_fields"`

	RequestResponseFormat string `json:"request_response_format,omitempty" yaml:"request_response_format,omitempty" mapstructure:"request_response_format"`

	// Images holds base64 payloads, one image item each.
	Images []string `json:"images,omitempty" yaml:"images,omitempty" mapstructure:"images"`

	// ImageDetail applies to every image item. Defaults to "auto".
	ImageDetail string `json:"image_detail,omitempty" yaml:"image_detail,omitempty" mapstructure:"image_detail" jsonschema:"enum=auto,enum=low,enum=high"`
}

// Item is one element of an assembled payload: a text item or an image item.
type Item struct {
	Type     ItemType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL is the body of an image item.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

// Items is an ordered payload.
type Items []Item

// TextItem builds a text content item.
func TextItem(text string) Item {
	return Item{Type: ItemTypeText, Text: text}
}

// ImageItem builds an image content item from a base64 payload.
func ImageItem(payload, detail string) Item {
	return Item{
		Type: ItemTypeImageURL,
		ImageURL: &ImageURL{
			URL:    ImageDataURLPrefix + payload,
			Detail: detail,
		},
	}
}

// Text returns the text block, or "" when the payload has none.
func (items Items) Text() string {
	for _, it := range items {
		if it.Type == ItemTypeText {
			return it.Text
		}
	}
	return ""
}

// ImageCount returns the number of image items.
func (items Items) ImageCount() int {
	n := 0
	for _, it := range items {
		if it.Type == ItemTypeImageURL {
			n++
		}
	}
	return n
}
