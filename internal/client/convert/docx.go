package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophview/internal/common"
)

const (
	docxBody              = "word/document.xml"
	markupCompatibilityNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

type docxRun struct {
	text   string
	bold   bool
	italic bool
}

type docxParagraph struct {
	style string
	runs  []docxRun
}

func (p *docxParagraph) empty() bool {
	for _, r := range p.runs {
		if r.text != "" {
			return false
		}
	}
	return true
}

func (p *docxParagraph) tag() string {
	switch s := strings.ToLower(p.style); {
	case s == "title":
		return "h1"
	case strings.HasPrefix(s, "heading") && len(s) == len("heading")+1:
		if d := s[len(s)-1]; d >= '1' && d <= '6' {
			return "h" + string(d)
		}
	}
	return "p"
}

func (p *docxParagraph) writeTo(b *strings.Builder) {
	tag := p.tag()
	b.WriteString("<" + tag + ">")
	for _, r := range p.runs {
		text := strings.ReplaceAll(html.EscapeString(r.text), "\n", "<br>")
		if r.bold {
			text = "<strong>" + text + "</strong>"
		}
		if r.italic {
			text = "<em>" + text + "</em>"
		}
		b.WriteString(text)
	}
	b.WriteString("</" + tag + ">")
}

// docxToHTML renders paragraphs, headings, bold and italic runs and tables
// from a .docx package.
func docxToHTML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", common.ErrConversion, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%w: docx has no %s", common.ErrConversion, docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrConversion, err)
	}
	defer rc.Close()

	out, err := renderDocx(xml.NewDecoder(rc))
	if err != nil {
		return "", fmt.Errorf("%w: parse docx: %v", common.ErrConversion, err)
	}
	return out, nil
}

func renderDocx(dec *xml.Decoder) (string, error) {
	var (
		b     strings.Builder
		paras []*docxParagraph
		runs  []*docxRun
		inRPr bool
	)

	para := func() *docxParagraph {
		if len(paras) == 0 {
			return nil
		}
		return paras[len(paras)-1]
	}
	run := func() *docxRun {
		if len(runs) == 0 {
			return nil
		}
		return runs[len(runs)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fallback":
				// mc:Fallback repeats the content of the chosen mc:Choice.
				if t.Name.Space == markupCompatibilityNS {
					if err := dec.Skip(); err != nil {
						return "", err
					}
				}
			case "tbl":
				b.WriteString("<table>")
			case "tr":
				b.WriteString("<tr>")
			case "tc":
				b.WriteString("<td>")
			case "p":
				// A nested paragraph (text box) ends the outer one's text so
				// far; the rest of the outer paragraph follows it.
				if outer := para(); outer != nil {
					if !outer.empty() {
						outer.writeTo(&b)
					}
					outer.runs = nil
				}
				paras = append(paras, &docxParagraph{})
			case "pStyle":
				if p := para(); p != nil {
					p.style = attr(t, "val")
				}
			case "r":
				runs = append(runs, &docxRun{})
			case "rPr":
				inRPr = true
			case "b":
				if r := run(); r != nil && inRPr {
					r.bold = toggle(t)
				}
			case "i":
				if r := run(); r != nil && inRPr {
					r.italic = toggle(t)
				}
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return "", err
				}
				if r := run(); r != nil {
					r.text += s
				} else if p := para(); p != nil {
					p.runs = append(p.runs, docxRun{text: s})
				}
			case "tab":
				if r := run(); r != nil {
					r.text += "\t"
				}
			case "br", "cr":
				if r := run(); r != nil {
					r.text += "\n"
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "rPr":
				inRPr = false
			case "r":
				if len(runs) == 0 {
					break
				}
				r := runs[len(runs)-1]
				runs = runs[:len(runs)-1]
				if p := para(); p != nil {
					p.runs = append(p.runs, *r)
				}
			case "p":
				if len(paras) == 0 {
					break
				}
				p := paras[len(paras)-1]
				paras = paras[:len(paras)-1]
				if !p.empty() {
					p.writeTo(&b)
				}
			case "tc":
				b.WriteString("</td>")
			case "tr":
				b.WriteString("</tr>")
			case "tbl":
				b.WriteString("</table>")
			}
		}
	}

	return b.String(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggle reads an OOXML on/off property; a missing w:val means on.
func toggle(se xml.StartElement) bool {
	switch strings.ToLower(attr(se, "val")) {
	case "0", "false", "off", "none":
		return false
	}
	return true
}
