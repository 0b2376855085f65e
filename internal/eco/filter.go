// Package eco trims response payloads down to the essentials.
package eco

// Payload is a JSON object response body.
type Payload map[string]any

// Keys is the allow-list kept in eco mode.
var Keys = []string{"ok", "stage", "semaphore", "time", "frame_id", "hint"}

// Filter returns payload untouched when enabled is false. Otherwise it
// returns a new payload holding only the allow-listed keys that are present.
func Filter(payload Payload, enabled bool) Payload {
	if !enabled {
		return payload
	}
	out := make(Payload, len(Keys))
	for _, key := range Keys {
		if value, ok := payload[key]; ok {
			out[key] = value
		}
	}
	return out
}
