package config

import "maps"

// SiteConfig holds per-host overrides for crawl behavior.
// Keys in the config file are bare host names (e.g., "docs.example.com");
// the overrides apply to every page fetched from that host.
type SiteConfig struct {
	// Cookie is an HTTP cookie header value to send to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this host.
	// Negative or absent means use the global depth; 0 is a valid override.
	Depth *int `yaml:"depth,omitempty"`

	// CodeLanguage overrides the fallback code-fence language for this host.
	CodeLanguage string `yaml:"codeLanguage,omitempty"`

	// ContentTokens are extra class/id substrings the content locator
	// treats as "content-like", in addition to the built-in token sets.
	ContentTokens []string `yaml:"contentTokens,omitempty"`

	// IgnorePatterns are URL path globs to skip while crawling this host.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL path globs to restrict crawling to.
	// Empty means all same-domain paths are eligible.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .sitemd configuration file.
type File struct {
	// Sites maps host names to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a site
	// entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the effective configuration for a host,
// merging the host-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	// The struct copy above aliases Defaults.Headers. Merging site headers
	// into the shared map would leak one host's credentials to every host
	// looked up afterwards, so the map is always cloned first.
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Depth != nil {
		result.Depth = site.Depth
	}
	if site.CodeLanguage != "" {
		result.CodeLanguage = site.CodeLanguage
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.ContentTokens) > 0 {
		result.ContentTokens = site.ContentTokens
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	return result
}
