package generation

import (
	"encoding/json"
	"strings"
)

// Result is the outcome of a generation round trip. It is either Parsed
// (the reply was valid JSON) or Raw (the reply was kept verbatim because
// it could not be parsed). Callers must type-switch before trusting shape;
// a malformed reply is a degraded result, never an error.
type Result interface {
	isResult()
}

// Parsed carries the structured payload of a well-formed reply.
type Parsed struct {
	Value map[string]any
}

func (Parsed) isResult() {}

// Raw carries the original reply text of a malformed one.
type Raw struct {
	Text string
}

func (Raw) isResult() {}

// parseContent trims the reply, strips a ```json fence when present and
// attempts a strict parse. Raw keeps the original, untrimmed text.
func parseContent(content string) Result {
	clean := strings.TrimSpace(content)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
		clean = strings.TrimSpace(clean)
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(clean), &value); err != nil {
		return Raw{Text: content}
	}
	return Parsed{Value: value}
}
