package supervisor

import (
	"encoding/json"
	"strings"
)

// rawDecision is the schema the backend is asked to answer with.
type rawDecision struct {
	Next   string `json:"next"`
	Reason string `json:"reason"`
}

// DecodeStrict parses content as a JSON routing decision. It accepts an
// optional markdown code fence around the object but nothing looser.
func DecodeStrict(content string) (Decision, bool) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var raw rawDecision
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Decision{}, false
	}
	if raw.Next == "" {
		raw.Next = RouteFinish
	}
	return Decision{Next: raw.Next, Reason: raw.Reason}, true
}

// DecodeFallback scans content for any known route name, case-insensitive,
// first match in routes order wins. The full raw text becomes the reason.
func DecodeFallback(content string, routes []string) (Decision, bool) {
	lower := strings.ToLower(content)
	for _, route := range routes {
		if strings.Contains(lower, strings.ToLower(route)) {
			return Decision{Next: route, Reason: strings.TrimSpace(content)}, true
		}
	}
	return Decision{}, false
}
