package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/liquidador/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types for proof-of-payment files.
var AllowedClientContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ValidateClientContentType checks the Content-Type header declared by the
// client for the proof file. Any image/* type is acceptable alongside PDF.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if strings.HasPrefix(ct, "image/") {
		return nil
	}
	if AllowedClientContentTypes[ct] {
		return nil
	}
	logger.L.Warn("Disallowed client-declared Content-Type for proof file", "contentType", contentType)
	return fmt.Errorf("proof file type '%s' is not allowed; attach an image or a PDF", contentType)
}

// ValidateFileContentByMagicBytes checks the actual file content signature
// (magic bytes) and returns the detected content type. The reader is rewound
// so the caller can store the full file afterwards.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detected := http.DetectContentType(buffer[:n])
	detected = strings.ToLower(strings.Split(detected, ";")[0])

	if strings.HasPrefix(detected, "image/") || detected == "application/pdf" {
		logger.L.Debug("Proof file content type (magic bytes) validated", "detectedContentType", detected)
		return detected, nil
	}

	logger.L.Warn("Disallowed detected proof file content type (magic bytes)", "detectedContentType", detected)
	return detected, fmt.Errorf("detected file content type '%s' is not an image or a PDF", detected)
}
