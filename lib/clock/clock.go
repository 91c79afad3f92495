package clock

import "time"

// Now returns the current UTC time formatted for response envelopes.
func Now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
