// Package common defines shared constants and sentinel errors used across
// client and server layers of gophview. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInvalidArgument = errors.New("invalid argument")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Descriptor errors: the backend could not describe the resource.
	// Never fatal for a preview.
	ErrDescriptor = errors.New("preview descriptor unavailable")

	// Engine errors.
	ErrEngineLoad    = errors.New("editor engine failed to load")
	ErrSessionCreate = errors.New("editor session could not be created")
	ErrSessionFailed = errors.New("editor session reported an error")

	// Conversion errors.
	ErrDownload          = errors.New("download failed")
	ErrUnsupportedFormat = errors.New("format not supported for preview")
	ErrConversion        = errors.New("conversion failed")

	// Native element load errors.
	ErrNativeLoad = errors.New("native element failed to load")
)
