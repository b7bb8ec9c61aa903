// Package validation checks the image sources accepted by the analysis API.
package validation

import (
	"net/url"
	"strings"

	apperrors "ct-scan-inspector/internal/errors"
)

// MaxURLLength bounds remote image URLs
const MaxURLLength = 2048

// URLValidator decides whether a remote scan URL may be downloaded.
type URLValidator struct {
	allowedSchemes []string
	// allowedHosts entries are exact hostnames or "*.suffix" patterns.
	// Empty allows every host.
	allowedHosts []string
}

// NewURLValidator allows http and https to any host
func NewURLValidator() *URLValidator {
	return &URLValidator{allowedSchemes: []string{"http", "https"}}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			normalized = append(normalized, h)
		}
	}
	return &URLValidator{allowedSchemes: schemes, allowedHosts: normalized}
}

// ValidateImageURL returns a validation AppError describing the first
// problem found with imageURL.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if len(imageURL) > MaxURLLength {
		return apperrors.NewValidationError("URL is too long", nil)
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if !v.isSchemeAllowed(parsed.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}
	if parsed.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if parsed.User != nil {
		return apperrors.NewValidationError("URL must not carry credentials", nil)
	}
	if !v.isHostAllowed(parsed.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range v.allowedHosts {
		if suffix, ok := strings.CutPrefix(allowed, "*"); ok {
			if strings.HasSuffix(host, suffix) && host != strings.TrimPrefix(suffix, ".") {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
