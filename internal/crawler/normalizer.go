package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidSeed is returned when the seed URL cannot be parsed or has no
// host. This is the only URL error that is fatal; invalid links discovered
// during a crawl are silently excluded from the frontier.
var ErrInvalidSeed = errors.New("invalid seed URL")

// Normalizer canonicalizes URLs against one crawl's seed URL and scopes
// them to the seed's host.
//
// Two URLs that differ only by trailing slash or fragment normalize
// identically, so the visited set and the frontier never see the same page
// under two spellings.
type Normalizer struct {
	// base is the parsed seed URL. Relative references resolve against it.
	base *url.URL
}

// NewNormalizer creates a Normalizer for the given seed URL.
// The seed must parse and carry a host component.
func NewNormalizer(seedURL string) (*Normalizer, error) {
	base, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seedURL, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidSeed, seedURL)
	}
	return &Normalizer{base: base}, nil
}

// Host returns the crawl's base host, including any port.
func (n *Normalizer) Host() string {
	return n.base.Host
}

// Normalize resolves rawURL against the seed, strips the fragment, keeps
// the query string, and trims any trailing slash.
//
// The trailing slash is trimmed after the query is appended, so a URL whose
// query ends in "/" loses that slash too. Normalize is idempotent.
func (n *Normalizer) Normalize(rawURL string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	u := n.base.ResolveReference(ref)

	clean := u.Scheme + "://" + u.Host + u.EscapedPath()
	if u.RawQuery != "" {
		clean += "?" + u.RawQuery
	}
	return strings.TrimRight(clean, "/"), nil
}

// IsSameDomain reports whether the URL's host exactly equals the crawl's
// base host. There is no subdomain or scheme matching, and the comparison
// includes the port. An unparsable URL is simply not same-domain.
func (n *Normalizer) IsSameDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host != "" && u.Host == n.base.Host
}
