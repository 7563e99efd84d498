// Package log provides logging with automatic sanitization of credential
// values, built on top of the standard slog package.
//
// Site configurations can carry cookies and Authorization headers for
// documentation hosts that sit behind header-based access control. Request
// attributes are routinely logged at debug level, so the SecureHandler masks
// credential-bearing attribute values before they reach the underlying
// handler. Even in verbose mode, secrets never appear in log output.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("request sent",
//	    "cookie", "session=abc123", // masked
//	    "url", "https://docs.example.com/intro",
//	)
//	slog.SetDefault(logger)
package log
