package models

// Strategy is the single rendering approach chosen for a resource.
type Strategy string

const (
	StrategyNone                 Strategy = ""
	StrategyExternalEditor       Strategy = "external-editor"
	StrategyNativeEmbed          Strategy = "native-embed"
	StrategyClientSideConversion Strategy = "client-side-conversion"
	StrategyLinkRedirect         Strategy = "link-redirect"
	StrategyDownloadOnly         Strategy = "download-only"
)

// Variant refines native-embed (and link-redirect) into the element used.
type Variant string

const (
	VariantNone  Variant = ""
	VariantPDF   Variant = "pdf"
	VariantImage Variant = "image"
	VariantVideo Variant = "video"
	VariantFrame Variant = "frame"
)

// Decision is the resolver's output.
type Decision struct {
	Strategy Strategy
	Variant  Variant
}

func (d Decision) String() string {
	if d.Variant == VariantNone {
		return string(d.Strategy)
	}
	return string(d.Strategy) + "/" + string(d.Variant)
}
