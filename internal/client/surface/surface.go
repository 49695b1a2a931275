// Package surface models the caller-supplied mount point previews render
// into. The consumer owns the mount's lifetime; while a preview is active
// its contents belong to the preview core.
package surface

import (
	"html"
	"strings"
)

// Kind is the element type placed into a mount.
type Kind string

const (
	KindFrame    Kind = "iframe"
	KindImage    Kind = "img"
	KindVideo    Kind = "video"
	KindMarkup   Kind = "markup"
	KindFragment Kind = "fragment"
	KindDownload Kind = "download"
	KindMessage  Kind = "message"
)

// Element is one child of a mount.
type Element struct {
	Kind  Kind
	Src   string
	Title string
	// HTML carries already sanitized markup (KindMarkup) or an editor
	// produced fragment (KindFragment).
	HTML string
}

// Frame returns an <iframe> element.
func Frame(src, title string) Element { return Element{Kind: KindFrame, Src: src, Title: title} }

// Image returns an <img> element.
func Image(src, alt string) Element { return Element{Kind: KindImage, Src: src, Title: alt} }

// Video returns a <video controls> element.
func Video(src string) Element { return Element{Kind: KindVideo, Src: src} }

// Markup returns a container holding sanitized markup.
func Markup(sanitized string) Element { return Element{Kind: KindMarkup, HTML: sanitized} }

// Fragment returns markup injected by an external editor.
func Fragment(raw string) Element { return Element{Kind: KindFragment, HTML: raw} }

// Download returns a download action.
func Download(url, label string) Element { return Element{Kind: KindDownload, Src: url, Title: label} }

// Message returns a plain text notice.
func Message(text string) Element { return Element{Kind: KindMessage, Title: text} }

// Render returns the element as HTML.
func (e Element) Render() string {
	src := html.EscapeString(e.Src)
	title := html.EscapeString(e.Title)

	switch e.Kind {
	case KindFrame:
		return `<iframe src="` + src + `" title="` + title + `"></iframe>`
	case KindImage:
		return `<img src="` + src + `" alt="` + title + `">`
	case KindVideo:
		return `<video controls src="` + src + `"></video>`
	case KindMarkup:
		return `<div class="preview-markup">` + e.HTML + `</div>`
	case KindFragment:
		return e.HTML
	case KindDownload:
		return `<a class="preview-download" href="` + src + `" download>` + title + `</a>`
	case KindMessage:
		return `<p class="preview-message">` + title + `</p>`
	default:
		return ""
	}
}

// RenderAll concatenates the rendered elements.
func RenderAll(els []Element) string {
	var b strings.Builder
	for _, e := range els {
		b.WriteString(e.Render())
	}
	return b.String()
}
