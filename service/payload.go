package service

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type decodedPayload struct {
	Data     []byte
	MimeType string
}

// decodeDataURL decodes a "data:<mime>;base64,<payload>" string. The MIME
// type in the header is returned as-is and may be empty.
func decodeDataURL(value string, maxBytes int64) (*decodedPayload, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(value), "data:") {
		return nil, invalidFormat("file content must be a data URL")
	}

	parts := strings.SplitN(value[len("data:"):], ",", 2)
	if len(parts) != 2 {
		return nil, invalidFormat("invalid data URL")
	}

	header := strings.Split(parts[0], ";")
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[len(header)-1]), "base64") {
		return nil, invalidFormat("data URL must be base64 encoded")
	}

	encoded := parts[1]
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > maxBytes+2 {
		return nil, invalidFormat("file exceeds max size of %d bytes", maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, invalidFormat("data URL payload is not valid base64")
		}
	}

	if len(data) == 0 {
		return nil, invalidFormat("file content is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, invalidFormat("file exceeds max size of %d bytes", maxBytes)
	}

	return &decodedPayload{
		Data:     data,
		MimeType: strings.ToLower(strings.TrimSpace(header[0])),
	}, nil
}

// effectiveMimeType picks the payload's declared type, then the caller's,
// then sniffs the content.
func effectiveMimeType(payload *decodedPayload, callerMimeType string) string {
	if payload != nil && payload.MimeType != "" {
		return payload.MimeType
	}
	if callerMimeType = strings.TrimSpace(callerMimeType); callerMimeType != "" {
		return strings.ToLower(callerMimeType)
	}
	if payload != nil {
		return mimetype.Detect(payload.Data).String()
	}
	return defaultMimeType
}
