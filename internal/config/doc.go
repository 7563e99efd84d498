// Package config holds the sitemd configuration model.
//
// Configuration comes from two places: CLI flags, which populate the flat
// Config struct, and an optional YAML file (.sitemd) that carries per-host
// overrides such as extra headers, crawl depth, or the content-class tokens
// the locator should recognize. The Config is passed through the application
// via dependency injection rather than global state.
package config
