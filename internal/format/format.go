// Package format maps a resource's declared type and file name onto the
// capability class that drives strategy selection. It is shared by the
// preview client and the descriptor backend.
package format

import (
	"path/filepath"
	"strings"
)

// Class is the rendering capability class of a resource.
type Class string

const (
	Office    Class = "office"
	PDF       Class = "pdf"
	Image     Class = "image"
	Video     Class = "video"
	Archive   Class = "archive"
	Hyperlink Class = "hyperlink"
	Unknown   Class = "unknown"
)

// Family narrows the Office class down to a document family.
type Family string

const (
	FamilyNone         Family = ""
	FamilyWord         Family = "word"
	FamilySpreadsheet  Family = "spreadsheet"
	FamilyPresentation Family = "presentation"
)

type kind struct {
	class  Class
	family Family
}

// declared maps lower-cased declared type names, extensions (without dot)
// and MIME types onto a kind.
var declared = map[string]kind{
	"word":         {Office, FamilyWord},
	"doc":          {Office, FamilyWord},
	"docx":         {Office, FamilyWord},
	"odt":          {Office, FamilyWord},
	"rtf":          {Office, FamilyWord},
	"excel":        {Office, FamilySpreadsheet},
	"spreadsheet":  {Office, FamilySpreadsheet},
	"xls":          {Office, FamilySpreadsheet},
	"xlsx":         {Office, FamilySpreadsheet},
	"ods":          {Office, FamilySpreadsheet},
	"csv":          {Office, FamilySpreadsheet},
	"powerpoint":   {Office, FamilyPresentation},
	"presentation": {Office, FamilyPresentation},
	"ppt":          {Office, FamilyPresentation},
	"pptx":         {Office, FamilyPresentation},
	"odp":          {Office, FamilyPresentation},

	"application/msword": {Office, FamilyWord},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {Office, FamilyWord},
	"application/vnd.ms-excel":                                                  {Office, FamilySpreadsheet},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {Office, FamilySpreadsheet},
	"application/vnd.ms-powerpoint":                                             {Office, FamilyPresentation},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {Office, FamilyPresentation},

	"pdf":             {PDF, FamilyNone},
	"application/pdf": {PDF, FamilyNone},

	"image": {Image, FamilyNone},
	"png":   {Image, FamilyNone},
	"jpg":   {Image, FamilyNone},
	"jpeg":  {Image, FamilyNone},
	"gif":   {Image, FamilyNone},
	"bmp":   {Image, FamilyNone},
	"webp":  {Image, FamilyNone},
	"svg":   {Image, FamilyNone},

	"video": {Video, FamilyNone},
	"mp4":   {Video, FamilyNone},
	"webm":  {Video, FamilyNone},
	"ogg":   {Video, FamilyNone},
	"mov":   {Video, FamilyNone},
	"m4v":   {Video, FamilyNone},

	"archive":                      {Archive, FamilyNone},
	"zip":                          {Archive, FamilyNone},
	"rar":                          {Archive, FamilyNone},
	"7z":                           {Archive, FamilyNone},
	"tar":                          {Archive, FamilyNone},
	"gz":                           {Archive, FamilyNone},
	"tgz":                          {Archive, FamilyNone},
	"application/zip":              {Archive, FamilyNone},
	"application/x-7z-compressed":  {Archive, FamilyNone},
	"application/x-rar-compressed": {Archive, FamilyNone},

	"link":      {Hyperlink, FamilyNone},
	"url":       {Hyperlink, FamilyNone},
	"hyperlink": {Hyperlink, FamilyNone},
}

// Classify returns the capability class of a resource. The declared type is
// matched case-insensitively as a name, extension or MIME type; when it does
// not classify, the extension of fileName is tried. Anything unrecognised is
// Unknown.
func Classify(declaredType, fileName string) Class {
	return lookup(declaredType, fileName).class
}

// OfficeFamily reports the document family of an Office resource, or
// FamilyNone for every other class.
func OfficeFamily(declaredType, fileName string) Family {
	return lookup(declaredType, fileName).family
}

func lookup(declaredType, fileName string) kind {
	if k, ok := lookupDeclared(declaredType); ok {
		return k
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if k, ok := declared[ext]; ok {
		return k
	}
	return kind{class: Unknown}
}

func lookupDeclared(declaredType string) (kind, bool) {
	t := strings.ToLower(strings.TrimSpace(declaredType))
	if t == "" {
		return kind{}, false
	}
	// MIME parameters such as "; charset=utf-8" do not matter here.
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimPrefix(t, ".")
	if k, ok := declared[t]; ok {
		return k, true
	}
	switch {
	case strings.HasPrefix(t, "image/"):
		return kind{class: Image}, true
	case strings.HasPrefix(t, "video/"):
		return kind{class: Video}, true
	}
	return kind{}, false
}
