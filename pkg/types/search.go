// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// WebResult is one result from a web-search capability, before it is
// normalized into a DocumentChunk.
type WebResult struct {
	// Title is the page title.
	Title string `json:"title" yaml:"title"`

	// Content is the snippet or summary text.
	Content string `json:"content" yaml:"content"`

	// URL is the result link.
	URL string `json:"url" yaml:"url"`

	// Authority labels the search provider or publisher (e.g. "SerpAPI").
	Authority string `json:"authority" yaml:"authority"`

	// Query is the query variant that produced the result.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Position is the provider's rank for the result within its query.
	Position int `json:"position,omitempty" yaml:"position,omitempty"`
}
