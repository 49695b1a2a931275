// Package models defines the data exchanged between the preview core, its
// consumer and the descriptor backend: what to preview (ResourceRef), how the
// backend suggests rendering it (PreviewDescriptor), which strategy was
// chosen (Strategy) and what the consumer sees (ViewState).
package models
