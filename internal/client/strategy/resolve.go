// Package strategy selects exactly one render strategy for a resource from
// its capability class and the backend's (possibly absent) descriptor.
package strategy

import (
	"github.com/dmitrijs2005/gophview/internal/client/models"
	"github.com/dmitrijs2005/gophview/internal/format"
)

// Resolve applies the selection rules in priority order:
//
//  1. editor hint on an Office resource    -> external-editor
//  2. pdf hint or PDF class                -> native-embed (pdf)
//  3. Image / Video class                  -> native-embed (image / video)
//  4. Office class                         -> client-side-conversion
//  5. Hyperlink class                      -> link-redirect (frame)
//  6. anything else                        -> download-only
//
// Resolve is pure and never fails; a nil descriptor is treated as one
// without a hint.
func Resolve(class format.Class, d *models.PreviewDescriptor) models.Decision {
	hint := d.Hint()

	switch {
	case hint == models.HintExternalEditor && class == format.Office:
		return models.Decision{Strategy: models.StrategyExternalEditor}
	case hint == models.HintPDF || class == format.PDF:
		return models.Decision{Strategy: models.StrategyNativeEmbed, Variant: models.VariantPDF}
	case class == format.Image:
		return models.Decision{Strategy: models.StrategyNativeEmbed, Variant: models.VariantImage}
	case class == format.Video:
		return models.Decision{Strategy: models.StrategyNativeEmbed, Variant: models.VariantVideo}
	case class == format.Office:
		return models.Decision{Strategy: models.StrategyClientSideConversion}
	case class == format.Hyperlink:
		return models.Decision{Strategy: models.StrategyLinkRedirect, Variant: models.VariantFrame}
	default:
		return models.Decision{Strategy: models.StrategyDownloadOnly}
	}
}

// ResolveRef classifies ref and resolves it against d.
func ResolveRef(ref models.ResourceRef, d *models.PreviewDescriptor) models.Decision {
	return Resolve(ref.Class(), d)
}
