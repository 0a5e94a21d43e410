// Package extract implements the C5.1 TextExtractor port: pulling plain
// text out of an uploaded CV file ahead of the LLM parse step.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/cvenhancer/core/pkg/textx"
)

// TikaExtractor implements domain.TextExtractor against an Apache Tika
// server: PUT /tika with Accept: text/plain returns the document's plain
// text regardless of source format (PDF, DOCX, RTF, ...).
type TikaExtractor struct {
	baseURL string
	hc      *http.Client
}

// NewTikaExtractor constructs a TikaExtractor against baseURL.
func NewTikaExtractor(baseURL string) *TikaExtractor {
	return &TikaExtractor{baseURL: baseURL, hc: &http.Client{Timeout: 20 * time.Second}}
}

// Extract implements domain.TextExtractor.
func (t *TikaExtractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	if looksLikePlainText(fileName, data) {
		return textx.SanitizeText(string(data)), nil
	}

	base := t.baseURL
	if base == "" {
		base = "http://localhost:9998"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, base+"/tika", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("tika: build request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if ct := contentTypeFor(fileName, data); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := t.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("tika: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("tika: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tika: read response: %w", err)
	}

	sanitized := textx.SanitizeText(string(body))
	return strings.Join(strings.Fields(sanitized), " "), nil
}

func looksLikePlainText(fileName string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".txt") {
		return true
	}
	if len(data) == 0 {
		return true
	}
	for _, b := range data[:min(512, len(data))] {
		if b == 0 {
			return false
		}
	}
	return false
}

// contentTypeFor classifies the upload by sniffing its bytes rather than
// trusting fileName's extension, which a renamed or extension-less upload
// can't be trusted to carry correctly. The extension is consulted only to
// disambiguate the handful of Office formats mimetype itself warns are
// ambiguous from content alone (old-style .doc vs. rtf vs. plain binary).
func contentTypeFor(fileName string, data []byte) string {
	detected := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(fileName))

	for m := detected; m != nil; m = m.Parent() {
		switch m.String() {
		case "application/pdf",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"text/plain":
			return m.String()
		}
	}

	switch ext {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".rtf":
		return "application/rtf"
	case ".txt":
		return "text/plain"
	}
	return detected.String()
}
