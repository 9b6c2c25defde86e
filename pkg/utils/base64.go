package utils

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeBase64 decodes an uploaded payload. Submissions arrive as plain-text
// base64; a data-URL prefix, if present, is stripped first.
func DecodeBase64(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("payload is not valid base64: %w", err)
	}
	return decoded, nil
}
