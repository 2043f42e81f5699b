package stream

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRe strips markdown code-fence markers that may wrap a <tool_call>
// block, with or without an "xml" language tag: ``` or ```xml on their own
// line.
var fenceRe = regexp.MustCompile("(?m)^\\s*```(?:xml)?\\s*$")

// toolCallRe matches a <tool_call>{...}</tool_call> block in document order.
var toolCallRe = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)

// FallbackToolCall is one XML-fallback tool invocation extracted from
// completed stream content.
type FallbackToolCall struct {
	Name      string
	Arguments json.RawMessage
}

type rawFallbackCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ExtractToolCalls scans content for <tool_call>{json}</tool_call> blocks,
// optionally wrapped in markdown code fences (with or without an "xml"
// tag), and returns each decoded call in document order. Malformed blocks
// (invalid JSON, missing name) are skipped rather than erroring — the
// stream parser never fails fatally (spec.md §4.1).
func ExtractToolCalls(content string) []FallbackToolCall {
	unfenced := fenceRe.ReplaceAllString(content, "")

	matches := toolCallRe.FindAllStringSubmatch(unfenced, -1)
	calls := make([]FallbackToolCall, 0, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		payload := strings.TrimSpace(m[1])
		var raw rawFallbackCall
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			continue
		}
		if raw.Name == "" {
			continue
		}
		if raw.Arguments == nil {
			raw.Arguments = json.RawMessage("{}")
		}
		calls = append(calls, FallbackToolCall{Name: raw.Name, Arguments: raw.Arguments})
	}
	return calls
}
