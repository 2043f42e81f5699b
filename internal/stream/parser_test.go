package stream

import (
	"strings"
	"testing"
)

func feedAll(t *testing.T, chunks []string) (thinking, content string) {
	t.Helper()
	p := New()
	var th, co strings.Builder
	for _, c := range chunks {
		d := p.Feed(c)
		th.WriteString(d.Thinking)
		co.WriteString(d.Content)
	}
	d := p.Flush()
	th.WriteString(d.Thinking)
	co.WriteString(d.Content)
	return th.String(), co.String()
}

func TestNoTags(t *testing.T) {
	thinking, content := feedAll(t, []string{"Hello, ", "world!"})
	if thinking != "" {
		t.Fatalf("expected no thinking, got %q", thinking)
	}
	if content != "Hello, world!" {
		t.Fatalf("content = %q", content)
	}
}

func TestBasicThinkBlock(t *testing.T) {
	thinking, content := feedAll(t, []string{"<think>plan</think>answer"})
	if thinking != "plan" {
		t.Fatalf("thinking = %q", thinking)
	}
	if content != "answer" {
		t.Fatalf("content = %q", content)
	}
}

func TestTagSplitAcrossDeltas(t *testing.T) {
	chunks := []string{"<thi", "nk>pl", "an</th", "ink>ans", "wer"}
	thinking, content := feedAll(t, chunks)
	if thinking != "plan" {
		t.Fatalf("thinking = %q", thinking)
	}
	if content != "answer" {
		t.Fatalf("content = %q", content)
	}
}

func TestCaseInsensitiveAndWhitespaceTolerant(t *testing.T) {
	thinking, content := feedAll(t, []string{"<THINK>plan</ THINK >answer"})
	if thinking != "plan" {
		t.Fatalf("thinking = %q", thinking)
	}
	if content != "answer" {
		t.Fatalf("content = %q", content)
	}
}

func TestUnclosedReasoningFlushedAsThinking(t *testing.T) {
	thinking, content := feedAll(t, []string{"<think>unterminated"})
	if thinking != "unterminated" {
		t.Fatalf("thinking = %q", thinking)
	}
	if content != "" {
		t.Fatalf("content = %q", content)
	}
}

func TestUnbalancedTagPrefixFlushedAsContent(t *testing.T) {
	thinking, content := feedAll(t, []string{"well <thi"})
	if thinking != "" {
		t.Fatalf("expected no thinking, got %q", thinking)
	}
	if content != "well <thi" {
		t.Fatalf("content = %q", content)
	}
}

func TestLiteralAngleBracketNotATag(t *testing.T) {
	thinking, content := feedAll(t, []string{"a < b and 1<2"})
	if thinking != "" {
		t.Fatalf("expected no thinking, got %q", thinking)
	}
	if content != "a < b and 1<2" {
		t.Fatalf("content = %q", content)
	}
}

func TestReclassification(t *testing.T) {
	p := New()
	d1 := p.Feed("Let me consider this. ")
	if d1.Content != "Let me consider this. " {
		t.Fatalf("first delta content = %q", d1.Content)
	}
	d2 := p.Feed("<think>continuing</think>final")
	if !d2.Reclassified {
		t.Fatalf("expected reclassification")
	}
	if d2.ReclassifiedText != "Let me consider this. " {
		t.Fatalf("reclassified text = %q", d2.ReclassifiedText)
	}
	if d2.Thinking != "continuing" {
		t.Fatalf("thinking = %q", d2.Thinking)
	}
	if d2.Content != "final" {
		t.Fatalf("content = %q", d2.Content)
	}
}

func TestRoundTripNoMarkup(t *testing.T) {
	text := "A perfectly ordinary response with no reasoning markup at all."
	// Feed it split at every third rune to stress the boundary handling.
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += 3 {
		end := i + 3
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	thinking, content := feedAll(t, chunks)
	if thinking != "" {
		t.Fatalf("expected no thinking, got %q", thinking)
	}
	if content != text {
		t.Fatalf("content = %q, want %q", content, text)
	}
}

func TestExtractToolCallsDocumentOrder(t *testing.T) {
	content := `Here goes:
<tool_call>{"name":"search","arguments":{"q":"monad"}}</tool_call>
and then
<tool_call>{"name":"ls","arguments":{"path":"."}}</tool_call>`
	calls := ExtractToolCalls(content)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "search" || calls[1].Name != "ls" {
		t.Fatalf("unexpected order: %+v", calls)
	}
}

func TestExtractToolCallsFenced(t *testing.T) {
	content := "```xml\n<tool_call>{\"name\":\"search\",\"arguments\":{}}</tool_call>\n```"
	calls := ExtractToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "search" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestExtractToolCallsMalformedSkipped(t *testing.T) {
	content := `<tool_call>{not json}</tool_call><tool_call>{"name":"ok","arguments":{}}</tool_call>`
	calls := ExtractToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "ok" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}
