// Package sl holds shared slog attribute helpers.
package sl

import (
	"fmt"
	"log/slog"
)

func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Secret keeps only the first characters of a sensitive value. Reset tokens
// and account addresses go through here before reaching any log sink.
func Secret(key, value string) slog.Attr {
	masked := "***"
	if len(value) > 5 {
		masked = fmt.Sprintf("%s***", value[:5])
	}
	if value == "" {
		masked = "?"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}

func Module(mod string) slog.Attr {
	return slog.Attr{
		Key:   "mod",
		Value: slog.StringValue(mod),
	}
}
