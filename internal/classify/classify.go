// Package classify guesses the routing dimensions of a drafting request by
// matching curated keyword tables against the user's text. It is the cheap,
// deterministic half of the dual-classifier arrangement; a semantic model
// produces the second opinion and the route resolver reconciles the two.
package classify

import (
	_ "embed"
	"fmt"
	"math"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/lexfoundry/draftgate/internal/model"
)

//go:embed tables.yaml
var tablesYAML []byte

// MaxConfidence is the ceiling for keyword-based confidence. The range
// above it is reserved for the semantic classifier.
const MaxConfidence = 0.90

type entry struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type tables struct {
	Domains       []entry `yaml:"domains"`
	DocumentTypes []entry `yaml:"documentTypes"`
	Forums        []entry `yaml:"forums"`
}

// DimensionMatch reports the winning category of one dimension and the
// keywords that carried it.
type DimensionMatch struct {
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Result bundles the classification with per-dimension match detail.
type Result struct {
	Classification model.Classification `json:"classification"`
	Domain         DimensionMatch       `json:"domain"`
	DocType        DimensionMatch       `json:"docType"`
	Forum          DimensionMatch       `json:"forum"`
}

type compiledEntry struct {
	category string
	keywords []string
	patterns []*regexp.Regexp
}

// Classifier matches text against the embedded keyword tables. Construct
// with New; the zero value is unusable.
type Classifier struct {
	domains  []compiledEntry
	docTypes []compiledEntry
	forums   []compiledEntry
}

// New parses and compiles the embedded tables.
func New() (*Classifier, error) {
	var t tables
	if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
		return nil, fmt.Errorf("parse keyword tables: %w", err)
	}
	c := &Classifier{}
	var err error
	if c.domains, err = compile(t.Domains); err != nil {
		return nil, err
	}
	if c.docTypes, err = compile(t.DocumentTypes); err != nil {
		return nil, err
	}
	if c.forums, err = compile(t.Forums); err != nil {
		return nil, err
	}
	return c, nil
}

// compile builds one matcher per keyword. A keyword containing whitespace
// is a plain case-insensitive substring; a single token matches on word
// boundaries only, so "cat" does not fire inside "certificate".
func compile(entries []entry) ([]compiledEntry, error) {
	out := make([]compiledEntry, 0, len(entries))
	for _, e := range entries {
		ce := compiledEntry{category: e.Category, keywords: e.Keywords}
		for _, kw := range e.Keywords {
			var expr string
			if strings.ContainsAny(kw, " \t") {
				expr = `(?i)` + regexp.QuoteMeta(kw)
			} else {
				expr = `(?i)\b` + regexp.QuoteMeta(kw) + `\b`
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("keyword %q in %q: %w", kw, e.Category, err)
			}
			ce.patterns = append(ce.patterns, re)
		}
		out = append(out, ce)
	}
	return out, nil
}

// Classify scores the query text plus all fact values against the three
// dimensions. Overall confidence is the mean of the non-zero per-dimension
// confidences, zero when nothing matched anywhere.
func (c *Classifier) Classify(query string, facts []model.Fact) Result {
	var sb strings.Builder
	sb.WriteString(query)
	for _, f := range facts {
		sb.WriteString("\n")
		sb.WriteString(f.Value)
	}
	text := sb.String()

	res := Result{
		Domain:  bestMatch(c.domains, text),
		DocType: bestMatch(c.docTypes, text),
		Forum:   bestMatch(c.forums, text),
	}
	res.Classification = model.Classification{
		DocType:     res.DocType.Category,
		CourtType:   res.Forum.Category,
		LegalDomain: res.Domain.Category,
		Confidence:  overall(res.Domain.Confidence, res.DocType.Confidence, res.Forum.Confidence),
	}
	return res
}

// bestMatch picks the category with the most matched keywords. Ties keep
// the earlier table entry, which makes the outcome deterministic.
func bestMatch(entries []compiledEntry, text string) DimensionMatch {
	best := DimensionMatch{}
	bestCount := 0
	for _, e := range entries {
		var matched []string
		for i, re := range e.patterns {
			if re.MatchString(text) {
				matched = append(matched, e.keywords[i])
			}
		}
		if len(matched) > bestCount {
			bestCount = len(matched)
			best = DimensionMatch{Category: e.category, Keywords: matched}
		}
	}
	if bestCount > 0 {
		best.Confidence = round2(math.Min(float64(bestCount)/3.0, MaxConfidence))
	}
	return best
}

func overall(confs ...float64) float64 {
	sum := 0.0
	n := 0
	for _, c := range confs {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
