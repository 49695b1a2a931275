// Package convert renders office documents to HTML on the client.
//
// Documents are downloaded with the preview access token, decoded by a
// per-family decoder and sanitized before they reach a mount. Presentations
// are never converted; callers get ErrUnsupportedFormat and should offer a
// download instead.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/format"
	"github.com/dmitrijs2005/gophview/internal/logging"
	"github.com/dmitrijs2005/gophview/internal/netx"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxDownloadBytes caps documents fetched for conversion.
const DefaultMaxDownloadBytes int64 = 32 << 20

// Source is the document to convert.
type Source struct {
	URL          string
	Token        string
	DeclaredType string
	Name         string
}

func (s Source) family() format.Family {
	return format.OfficeFamily(s.DeclaredType, s.Name)
}

// ext returns the lower-cased extension hint without the dot, from the name
// or the declared type.
func (s Source) ext() string {
	if e := strings.TrimPrefix(strings.ToLower(filepath.Ext(s.Name)), "."); e != "" {
		return e
	}
	return strings.ToLower(strings.TrimSpace(s.DeclaredType))
}

type decoder func(data []byte, src Source, contentType string) (string, error)

// Converter downloads and converts documents.
type Converter struct {
	client   *http.Client
	maxBytes int64
	policy   *bluemonday.Policy
	logger   logging.Logger
	decoders map[format.Family]decoder
}

func New(client *http.Client, maxBytes int64, logger logging.Logger) *Converter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}
	return &Converter{
		client:   client,
		maxBytes: maxBytes,
		policy:   bluemonday.UGCPolicy(),
		logger:   logger.With("module", "convert"),
		decoders: map[format.Family]decoder{
			format.FamilyWord:        decodeWord,
			format.FamilySpreadsheet: decodeSpreadsheet,
		},
	}
}

// Convert returns sanitized HTML for src.
func (c *Converter) Convert(ctx context.Context, src Source) (string, error) {
	family := src.family()
	if family == format.FamilyPresentation {
		return "", fmt.Errorf("%w: presentations are not convertible, please download the file", common.ErrUnsupportedFormat)
	}
	decode, ok := c.decoders[family]
	if !ok {
		return "", fmt.Errorf("%w: no converter for %q", common.ErrUnsupportedFormat, src.DeclaredType)
	}

	data, contentType, err := netx.Download(ctx, c.client, src.URL, src.Token, c.maxBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrDownload, err)
	}

	html, err := decode(data, src, contentType)
	if err != nil {
		return "", err
	}

	c.logger.Debug(ctx, "document converted", "family", family, "bytes", len(data))
	return c.policy.Sanitize(html), nil
}

var zipMagic = []byte("PK\x03\x04")

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func decodeWord(data []byte, src Source, _ string) (string, error) {
	if !isZip(data) {
		return "", fmt.Errorf("%w: %s is not an Office Open XML document", common.ErrConversion, src.ext())
	}
	return docxToHTML(data)
}

func decodeSpreadsheet(data []byte, src Source, contentType string) (string, error) {
	if isZip(data) {
		return xlsxToHTML(data)
	}
	if src.ext() == "csv" || strings.HasPrefix(strings.ToLower(contentType), "text/csv") {
		return csvToHTML(data)
	}
	return "", fmt.Errorf("%w: %s is not an Office Open XML workbook", common.ErrConversion, src.ext())
}
