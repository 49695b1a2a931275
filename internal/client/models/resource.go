package models

import (
	"time"

	"github.com/dmitrijs2005/gophview/internal/format"
)

// ResourceRef identifies the resource to preview. It is immutable input.
type ResourceRef struct {
	ID           string `json:"id"`
	DeclaredType string `json:"declaredType"`
	// Name is the original file name, used for extension-based
	// classification when DeclaredType is vague.
	Name        string `json:"name,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// Class returns the capability class of the resource.
func (r ResourceRef) Class() format.Class {
	return format.Classify(r.DeclaredType, r.Name)
}

// Family returns the Office document family, FamilyNone for other classes.
func (r ResourceRef) Family() format.Family {
	return format.OfficeFamily(r.DeclaredType, r.Name)
}

// StrategyHint is the backend's suggestion for rendering a resource.
type StrategyHint string

const (
	HintExternalEditor StrategyHint = "external-editor"
	HintPDF            StrategyHint = "pdf"
	HintDirect         StrategyHint = "direct"
	HintDownload       StrategyHint = "download"
)

// PreviewDescriptor is issued by the backend for a ResourceRef. Any field may
// be empty; a nil descriptor is valid input everywhere in the core.
type PreviewDescriptor struct {
	PreviewURL    string       `json:"previewUrl"`
	DownloadURL   string       `json:"downloadUrl"`
	StrategyHint  StrategyHint `json:"strategyHint,omitempty"`
	ResourceType  string       `json:"resourceType,omitempty"`
	AccessToken   string       `json:"accessToken,omitempty"`
	TokenExpiry   *time.Time   `json:"tokenExpiry,omitempty"`
	RefreshToken  string       `json:"refreshToken,omitempty"`
	RefreshExpiry *time.Time   `json:"refreshExpiry,omitempty"`
}

// TokenValid reports whether the descriptor carries an access token that is
// not expired at now. A token without expiry is considered valid.
func (d *PreviewDescriptor) TokenValid(now time.Time) bool {
	if d == nil || d.AccessToken == "" {
		return false
	}
	return d.TokenExpiry == nil || now.Before(*d.TokenExpiry)
}

// CanRefresh reports whether the refresh token may still be exchanged.
func (d *PreviewDescriptor) CanRefresh(now time.Time) bool {
	if d == nil || d.RefreshToken == "" {
		return false
	}
	return d.RefreshExpiry == nil || now.Before(*d.RefreshExpiry)
}

// Hint returns the strategy hint, tolerating a nil descriptor.
func (d *PreviewDescriptor) Hint() StrategyHint {
	if d == nil {
		return ""
	}
	return d.StrategyHint
}

// PreviewSource returns the URL to render: PreviewURL, else DownloadURL,
// else the resource's own download URL.
func (d *PreviewDescriptor) PreviewSource(ref ResourceRef) string {
	if d != nil {
		if d.PreviewURL != "" {
			return d.PreviewURL
		}
		if d.DownloadURL != "" {
			return d.DownloadURL
		}
	}
	return ref.DownloadURL
}

// DownloadSource returns the URL offered for downloading the raw resource.
func (d *PreviewDescriptor) DownloadSource(ref ResourceRef) string {
	if d != nil && d.DownloadURL != "" {
		return d.DownloadURL
	}
	if ref.DownloadURL != "" {
		return ref.DownloadURL
	}
	if d != nil {
		return d.PreviewURL
	}
	return ""
}

// Token returns the access token, "" for a nil descriptor.
func (d *PreviewDescriptor) Token() string {
	if d == nil {
		return ""
	}
	return d.AccessToken
}
