package content

import (
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// ToOpenAIParts converts items to go-openai multi-content parts.
func ToOpenAIParts(items Items) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case ItemTypeText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: it.Text,
			})
		case ItemTypeImageURL:
			if it.ImageURL == nil {
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    it.ImageURL.URL,
					Detail: openai.ImageURLDetail(it.ImageURL.Detail),
				},
			})
		}
	}
	return parts
}

// ToOpenAIMessage wraps items in a user chat completion message.
func ToOpenAIMessage(items Items) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: ToOpenAIParts(items),
	}
}

// ToAnthropicContents converts items to Anthropic message content blocks.
// Images become base64 sources; detail has no Anthropic equivalent and is
// dropped.
func ToAnthropicContents(items Items) []anthropic.MessageContent {
	contents := make([]anthropic.MessageContent, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case ItemTypeText:
			contents = append(contents, anthropic.NewTextMessageContent(it.Text))
		case ItemTypeImageURL:
			if it.ImageURL == nil {
				continue
			}
			payload := strings.TrimPrefix(it.ImageURL.URL, ImageDataURLPrefix)
			source := anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				DetectImageMediaType(payload),
				payload,
			)
			contents = append(contents, anthropic.NewImageMessageContent(source))
		}
	}
	return contents
}

// ToAnthropicMessage wraps items in a user message.
func ToAnthropicMessage(items Items) anthropic.Message {
	return anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: ToAnthropicContents(items),
	}
}
