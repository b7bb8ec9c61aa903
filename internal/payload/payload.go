// Package payload parses image data URIs into the media type and encoded
// bytes every analysis stage works on.
package payload

import (
	"encoding/base64"
	"regexp"
	"strings"

	apperrors "ct-scan-inspector/internal/errors"
)

// dataURIPattern accepts data:<type>/<subtype>[;param=value...];base64,<data>.
var dataURIPattern = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+(?:;[\w.+-]+=[^;,]+)*);base64,(.+)$`)

// ImagePayload is an image split out of its data URI
type ImagePayload struct {
	MediaType   string
	EncodedData string
}

// Parse extracts the media type and base64 data from a data URI. The
// encoded data is taken as-is; it is neither validated nor decoded.
func Parse(input string) (ImagePayload, error) {
	match := dataURIPattern.FindStringSubmatch(input)
	if match == nil {
		return ImagePayload{}, apperrors.NewMalformedInputError(describe(input))
	}
	return ImagePayload{MediaType: match[1], EncodedData: match[2]}, nil
}

// FromBytes encodes raw image bytes into a payload.
func FromBytes(mediaType string, raw []byte) ImagePayload {
	return ImagePayload{
		MediaType:   mediaType,
		EncodedData: base64.StdEncoding.EncodeToString(raw),
	}
}

// DataURI rebuilds the data URI the payload was parsed from.
func (p ImagePayload) DataURI() string {
	return "data:" + p.MediaType + ";base64," + p.EncodedData
}

// Decode returns the raw image bytes. Missing padding is tolerated.
func (p ImagePayload) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(p.EncodedData)
	if err == nil {
		return raw, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(p.EncodedData, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// describe gives a short reason for a rejected input, used as error details
func describe(input string) string {
	switch {
	case strings.TrimSpace(input) == "":
		return "input is empty"
	case !strings.HasPrefix(input, "data:"):
		return "input does not start with data:"
	case !strings.Contains(input, ";base64,"):
		return "input is not base64 encoded"
	default:
		return "media type or data is missing"
	}
}
