package content

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// DetectImageMediaType sniffs the media type of a base64 image payload.
// It falls back to image/jpeg, the type the data URL prefix declares.
func DetectImageMediaType(payload string) string {
	// 16 base64 chars decode to 12 bytes, enough for every signature below.
	head := payload
	if len(head) > 16 {
		head = head[:16]
	}
	data, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(head, "="))
		if err != nil || len(data) == 0 {
			return "image/jpeg"
		}
	}

	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}

	switch {
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G':
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 4 && string(data[:4]) == "GIF8":
		return "image/gif"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return "image/jpeg"
}
