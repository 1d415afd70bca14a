package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// UploadPolicy defines constraints for file uploads.
type UploadPolicy struct {
	MaxFileSize      int64
	AllowedMimeTypes map[string]bool
}

// NewUploadPolicy builds a policy from the configured limits. An empty
// allow list accepts every detected type.
func NewUploadPolicy(maxSize int64, allowed []string) *UploadPolicy {
	types := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		if n := NormalizeMimeType(t); n != "" {
			types[n] = true
		}
	}
	return &UploadPolicy{
		MaxFileSize:      maxSize,
		AllowedMimeTypes: types,
	}
}

// ValidateFileSize checks if the file size is within the allowed limit.
func (p *UploadPolicy) ValidateFileSize(size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if p.MaxFileSize > 0 && size > p.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, p.MaxFileSize)
	}
	return nil
}

// ValidateMimeType checks if the MIME type is in the allowed whitelist.
func (p *UploadPolicy) ValidateMimeType(mimeType string) error {
	normalized := NormalizeMimeType(mimeType)
	if normalized == "" {
		return fmt.Errorf("%w: missing content type", ErrUnsupportedType)
	}
	if len(p.AllowedMimeTypes) == 0 {
		return nil
	}
	if !p.AllowedMimeTypes[normalized] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, normalized)
	}
	return nil
}

// DetectMimeType sniffs the content. The declared type only wins when
// sniffing finds nothing more specific than generic binary, or generic text
// for a declared text subtype.
func DetectMimeType(data []byte, declaredType string) string {
	detected := NormalizeMimeType(mimetype.Detect(data).String())
	declared := NormalizeMimeType(declaredType)
	switch {
	case declared == "":
		return detected
	case detected == "application/octet-stream":
		return declared
	case detected == "text/plain" && strings.HasPrefix(declared, "text/"):
		return declared
	}
	return detected
}

// Validate performs full validation on an upload and returns the MIME type
// that should be stored.
func (p *UploadPolicy) Validate(size int64, declaredType string, head []byte) (string, error) {
	if err := p.ValidateFileSize(size); err != nil {
		return "", err
	}
	mimeType := DetectMimeType(head, declaredType)
	if err := p.ValidateMimeType(mimeType); err != nil {
		return mimeType, err
	}
	return mimeType, nil
}

// NormalizeMimeType lowercases and strips parameters such as charset.
func NormalizeMimeType(mimeType string) string {
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	return normalized
}
