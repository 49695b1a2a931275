package models

import "time"

// Strategy hints understood by clients.
const (
	HintExternalEditor = "external-editor"
	HintPDF            = "pdf"
	HintDirect         = "direct"
	HintDownload       = "download"
)

// PreviewDescriptor is the JSON document returned by the preview endpoint.
type PreviewDescriptor struct {
	PreviewURL    string     `json:"previewUrl"`
	DownloadURL   string     `json:"downloadUrl"`
	StrategyHint  string     `json:"strategyHint,omitempty"`
	ResourceType  string     `json:"resourceType,omitempty"`
	AccessToken   string     `json:"accessToken,omitempty"`
	TokenExpiry   *time.Time `json:"tokenExpiry,omitempty"`
	RefreshToken  string     `json:"refreshToken,omitempty"`
	RefreshExpiry *time.Time `json:"refreshExpiry,omitempty"`
}

// TokenPair is the result of issuing or rotating preview tokens.
type TokenPair struct {
	AccessToken   string    `json:"accessToken"`
	TokenExpiry   time.Time `json:"tokenExpiry"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshExpiry"`
}
