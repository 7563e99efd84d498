package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxRawSize is the maximum size of raw page content kept in memory.
// Larger bodies are truncated to this size by the fetch layer, but the
// model enforces the cap again before hashing so stored hashes stay
// consistent regardless of where the page came from.
const MaxRawSize = 5 * 1024 * 1024 // 5 MB

// Page represents one crawled web page and its extracted Markdown document.
//
// Design decision: We keep both the raw response body and the rendered
// Markdown because:
//  1. The hash of the raw body enables change detection in the store
//  2. The Markdown is the artifact the rest of the system consumes
//  3. Re-extraction (e.g. with different locator tokens) needs the raw body
type Page struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// Depth is the frontier depth at which the page was fetched.
	// The seed page is depth 0.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Title is the document title. Taken from the <title> tag when present,
	// otherwise derived from the URL path.
	Title string `json:"title,omitempty"`

	// Description is the meta description, if the page declares one.
	Description string `json:"description,omitempty"`

	// Markdown is the rendered per-page Markdown document, including the
	// header section (title, URL, description, horizontal rule).
	Markdown string `json:"markdown"`

	// Raw contains the raw response body bytes, capped at MaxRawSize.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw body, hex encoded.
	Hash string `json:"hash"`

	// FetchedAt records when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeHash computes and stores the SHA-256 hash of the raw body.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateRaw enforces the MaxRawSize cap on the raw body.
// Call before ComputeHash so truncated and non-truncated fetch paths
// produce the same hash for the same stored bytes.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxRawSize {
		p.Raw = p.Raw[:MaxRawSize]
	}
}
