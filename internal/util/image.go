package util

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ImageBytesToURL converts image bytes to a data URL.
func ImageBytesToURL(b []byte, mimeType string) string {
	if len(b) == 0 {
		return ""
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// ParseDataURL decodes a data URL into its mime type and raw bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("util: invalid data URL %q", truncate(dataURL))
	}
	ct, contents, ok := strings.Cut(rest, ";")
	if !ok {
		return "", nil, fmt.Errorf("util: invalid data URL %q", truncate(dataURL))
	}
	b64, ok := strings.CutPrefix(contents, "base64,")
	if !ok {
		return "", nil, fmt.Errorf("util: only base64 data URLs supported, got %q", truncate(dataURL))
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("util: decoding data URL: %w", err)
	}
	return ct, data, nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
