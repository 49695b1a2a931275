package lifecycle

import (
	"errors"

	"github.com/dmitrijs2005/gophview/internal/client/embed"
	"github.com/dmitrijs2005/gophview/internal/common"
)

// User-facing texts.
const (
	MessageNoPreview     = "Preview is not available for this file type."
	MessageEditorLoad    = "The document viewer could not be loaded."
	MessageEditorSession = "The document could not be opened in the viewer."
	MessageUnsupported   = "This file cannot be previewed. Please download it instead."
	MessageDownload      = "The file could not be downloaded for preview."
	MessageConversion    = "The document could not be converted for preview."
	MessageGeneric       = "The preview could not be displayed."
)

// Message maps an engine error onto the text shown to the consumer.
func Message(err error) string {
	var le *embed.LoadError
	switch {
	case errors.As(err, &le):
		return le.Message
	case errors.Is(err, common.ErrEngineLoad):
		return MessageEditorLoad
	case errors.Is(err, common.ErrSessionCreate), errors.Is(err, common.ErrSessionFailed):
		return MessageEditorSession
	case errors.Is(err, common.ErrUnsupportedFormat):
		return MessageUnsupported
	case errors.Is(err, common.ErrDownload):
		return MessageDownload
	case errors.Is(err, common.ErrConversion):
		return MessageConversion
	default:
		return MessageGeneric
	}
}
