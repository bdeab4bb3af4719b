package normalize

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Attachment is one supporting document supplied alongside the user query.
type Attachment struct {
	DocID string `json:"docId"`
	Text  string `json:"text"`
}

// Result is the sanitizer output. Passed is false when a manipulation
// pattern matched or when the input had to be truncated to the word cap;
// truncation itself is always applied, Passed only signals it happened.
// Manipulation is set only for the former, since that one stops the run.
type Result struct {
	Passed               bool         `json:"passed"`
	Manipulation         bool         `json:"manipulation,omitempty"`
	SanitizedText        string       `json:"sanitizedText"`
	SanitizedAttachments []Attachment `json:"sanitizedAttachments,omitempty"`
	Events               []string     `json:"events,omitempty"`
	WordCount            int          `json:"wordCount"`
}

// Normalizer sanitizes raw user text before anything downstream sees it.
type Normalizer struct {
	// MaxWords caps the query; zero means DefaultMaxWords.
	MaxWords int
	// MaxAttachmentWords caps each attachment; zero means DefaultMaxAttachmentWords.
	MaxAttachmentWords int
}

const (
	DefaultMaxWords           = 5000
	DefaultMaxAttachmentWords = 20000
)

// manipulationRes are matched against the original input, before any
// cleanup, so the audit event carries the phrase as it arrived.
var manipulationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|the)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all)\s+(above|before|previously)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\b`),
	regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are|a|an)\b`),
	regexp.MustCompile(`(?i)(reveal|show|print|repeat)\s+(your|the)\s+system\s+prompt`),
	regexp.MustCompile(`(?i)override\s+(your|the)\s+(safety|system)\s+(rules?|settings?|instructions?)`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)\bDAN\s+mode\b`),
}

// invisible code points stripped in step 3: zero-width characters, BOM,
// soft hyphen, and bidirectional controls used to disguise text.
var invisibleRunes = map[rune]struct{}{
	'\u200b': {}, '\u200c': {}, '\u200d': {}, '\u2060': {}, '\ufeff': {},
	'\u00ad': {}, '\u200e': {}, '\u200f': {},
	'\u202a': {}, '\u202b': {}, '\u202c': {}, '\u202d': {}, '\u202e': {},
	'\u2066': {}, '\u2067': {}, '\u2068': {}, '\u2069': {},
}

// Sanitize cleans the raw query and every attachment independently.
func (n *Normalizer) Sanitize(raw string, attachments []Attachment) Result {
	maxWords := n.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	maxAttach := n.MaxAttachmentWords
	if maxAttach <= 0 {
		maxAttach = DefaultMaxAttachmentWords
	}

	res := Result{Passed: true}

	text, events, clean, manip := sanitizeOne(raw, maxWords, "query")
	res.SanitizedText = text
	res.Events = events
	res.WordCount = countWords(text)
	if !clean {
		res.Passed = false
	}
	res.Manipulation = manip

	for _, a := range attachments {
		t, evs, ok, m := sanitizeOne(a.Text, maxAttach, "attachment:"+a.DocID)
		res.SanitizedAttachments = append(res.SanitizedAttachments, Attachment{DocID: a.DocID, Text: t})
		res.Events = append(res.Events, evs...)
		if !ok {
			res.Passed = false
		}
		if m {
			res.Manipulation = true
		}
	}
	return res
}

// sanitizeOne applies the full cleaning sequence to a single text. The
// order matters: manipulation detection runs first so the original matched
// phrase lands in the audit trail, phrase erasure runs after Unicode
// normalization so composed forms cannot dodge it.
func sanitizeOne(raw string, maxWords int, tag string) (string, []string, bool, bool) {
	var events []string
	clean := true

	matched := detectManipulation(raw)
	manip := len(matched) > 0
	for _, m := range matched {
		events = append(events, fmt.Sprintf("%s: manipulation pattern detected: %q", tag, m))
		clean = false
	}

	text := stripMarkup(raw)
	text = stripInvisible(text)
	text = norm.NFC.String(text)
	for _, re := range manipulationRes {
		text = re.ReplaceAllString(text, " ")
	}
	text = collapseWhitespace(text)

	if words := strings.Fields(text); len(words) > maxWords {
		text = strings.Join(words[:maxWords], " ")
		events = append(events, fmt.Sprintf("%s: truncated to %d words", tag, maxWords))
		clean = false
	}
	return text, events, clean, manip
}

func detectManipulation(s string) []string {
	var out []string
	for _, re := range manipulationRes {
		if m := re.FindString(s); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// stripMarkup removes HTML/XML tags, keeping the text content. Inputs that
// contain no markup pass through unchanged apart from entity decoding.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	node, err := html.Parse(bytes.NewReader([]byte(s)))
	if err != nil || node == nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript", "iframe":
				return
			case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				b.WriteString("\n")
			}
		}
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}

func stripInvisible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, drop := invisibleRunes[r]; drop {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseWhitespace reduces runs of spaces and tabs to one space and runs
// of blank lines to one newline, trimming the ends.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			if len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
