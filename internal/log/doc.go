// Package log builds the slog loggers used by Prism.
//
// Loggers write text (NewLogger) or JSON (NewJSONLogger) and always go through
// a RedactingHandler. Prism logs template variables and settings values in
// verbose mode, and those often carry credentials for the systems a report is
// about, so attributes whose key or value looks sensitive are masked before
// they reach the output:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("template vars", "vars", map[string]any{
//	    "title":     "Q1",
//	    "api_token": "abc", // logged as ***REDACTED***
//	})
//	slog.SetDefault(logger)
//
// Maps and nested groups are walked, so a secret deep inside the template
// variables is masked as well.
package log
