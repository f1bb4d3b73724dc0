package domain

import "strings"

// SegmentKind distinguishes prose from fenced code in rendered output.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentCode
)

// String returns a human-readable label for the kind.
func (k SegmentKind) String() string {
	if k == SegmentCode {
		return "code"
	}
	return "prose"
}

// Segment is the atomic unit of rendered model output. Content holds the
// display text: for code segments the fences, the language tag, and the
// newline bracketing the body are already stripped. Raw holds the exact
// substring of the input the segment was derived from, fences included, so
// that concatenating Raw over all segments (none dropped) reproduces the
// input.
type Segment struct {
	Kind    SegmentKind
	Content string
	Raw     string
	Lang    string // language tag for code segments, "" otherwise
}

const fence = "```"

// SplitSegments segments raw model output into alternating prose and fenced
// code segments. It is pure and never fails: unbalanced fence markup
// degrades gracefully, with an unterminated opening fence treated as a code
// block running to end of input. Segments whose content is empty after
// stripping (whitespace-only prose, empty code bodies) are dropped; the
// ordering of the rest is preserved. Single linear pass over the input.
func SplitSegments(text string) []Segment {
	if text == "" {
		return nil
	}

	var segs []Segment
	pos := 0
	for pos < len(text) {
		open := strings.Index(text[pos:], fence)
		if open < 0 {
			appendProse(&segs, text[pos:])
			break
		}
		open += pos
		appendProse(&segs, text[pos:open])

		bodyStart := open + len(fence)
		end := strings.Index(text[bodyStart:], fence)
		if end < 0 {
			// Odd fence count: the final span extends to end of input.
			appendCode(&segs, text[open:], text[bodyStart:], false)
			break
		}
		end += bodyStart
		appendCode(&segs, text[open:end+len(fence)], text[bodyStart:end], true)
		pos = end + len(fence)
	}
	return segs
}

// appendProse emits unfenced text verbatim, dropping whitespace-only runs.
func appendProse(segs *[]Segment, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	*segs = append(*segs, Segment{Kind: SegmentProse, Content: text, Raw: text})
}

// appendCode emits a code segment from the span between two fences (or from
// an unterminated fence to end of input). A language tag is recognized only
// when the run of word characters after the opening fence is followed by a
// newline; the tag and that newline are stripped. For terminated blocks the
// single newline preceding the closing fence is stripped as well.
func appendCode(segs *[]Segment, raw, body string, terminated bool) {
	content := body
	lang := ""

	i := 0
	for i < len(content) && isWordByte(content[i]) {
		i++
	}
	if i < len(content) && content[i] == '\n' {
		lang = content[:i]
		content = content[i+1:]
	}
	if terminated {
		content = strings.TrimSuffix(content, "\n")
	}
	if content == "" {
		return
	}
	*segs = append(*segs, Segment{Kind: SegmentCode, Content: content, Raw: raw, Lang: lang})
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
