// Package promote classifies staging rules for graduation into the main
// rule set. It is a pure evaluation: the gate itself always passes, and
// the atomic create/mark/log side effect is applied by the store from its
// output. A rule must have recurred, matter, stay generic, and not
// contradict an already-trusted rule.
package promote

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexfoundry/draftgate/internal/model"
)

const minOccurrences = 3

var promotableSeverities = map[string]struct{}{
	"medium": {},
	"high":   {},
}

// oppositeActions is the fixed list of action-word pairs that make two
// rules contradict. Kept fixed rather than configurable.
var oppositeActions = map[string]string{
	"include":    "exclude",
	"exclude":    "include",
	"required":   "prohibited",
	"prohibited": "required",
	"add":        "remove",
	"remove":     "add",
	"allow":      "disallow",
	"disallow":   "allow",
}

// genericLegalTerms is the allow-list of capitalized multi-word spans that
// do not make a rule case-specific.
var genericLegalTerms = map[string]struct{}{
	"High Court":                 {},
	"Supreme Court":              {},
	"District Court":             {},
	"Sessions Court":             {},
	"Family Court":               {},
	"Consumer Forum":             {},
	"Magistrate Court":           {},
	"Indian Penal Code":          {},
	"Bharatiya Nyaya Sanhita":    {},
	"Criminal Procedure Code":    {},
	"Civil Procedure Code":       {},
	"Negotiable Instruments Act": {},
	"Limitation Act":             {},
	"Stamp Act":                  {},
	"Evidence Act":               {},
	"Court Fees Act":             {},
}

var (
	caseNumberRe = regexp.MustCompile(`\b\d{1,6}/\d{2,4}\b`)
	numericDateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{4}\b`)
	addressRe     = regexp.MustCompile(`(?i)\b(?:road|street|lane|nagar|colony|sector|cross|layout|flat no\.?|house no\.?|pin ?code)\b`)
	capitalSpanRe = regexp.MustCompile(`\b(?:[A-Z][a-z]+)(?:\s+[A-Z][a-z]+)+\b`)
)

// Evaluation is the verdict for one candidate with every failing reason,
// not just the first.
type Evaluation struct {
	Rule     model.StagingRule `json:"rule"`
	Eligible bool              `json:"eligible"`
	Reasons  []string          `json:"reasons,omitempty"`
}

// Result is the promotion gate output. Passed is always true; this gate
// classifies candidates, it does not block the pipeline.
type Result struct {
	Passed   bool         `json:"passed"`
	Eligible []Evaluation `json:"eligible,omitempty"`
	Rejected []Evaluation `json:"rejected,omitempty"`
}

// Evaluate judges every candidate against the main rules for the same
// document type and jurisdiction.
func Evaluate(candidates []model.StagingRule, mainRules []model.MainRule) Result {
	res := Result{Passed: true}
	for _, c := range candidates {
		ev := evaluateOne(c, mainRules)
		if ev.Eligible {
			res.Eligible = append(res.Eligible, ev)
		} else {
			res.Rejected = append(res.Rejected, ev)
		}
	}
	return res
}

func evaluateOne(c model.StagingRule, mainRules []model.MainRule) Evaluation {
	ev := Evaluation{Rule: c}

	if c.Status == model.StatusPromoted {
		ev.Reasons = append(ev.Reasons, "already promoted")
	}
	if c.OccurrenceCount < minOccurrences {
		ev.Reasons = append(ev.Reasons,
			fmt.Sprintf("occurrence count %d below minimum %d", c.OccurrenceCount, minOccurrences))
	}
	if _, ok := promotableSeverities[strings.ToLower(c.Severity)]; !ok {
		ev.Reasons = append(ev.Reasons, fmt.Sprintf("severity %q is not promotable", c.Severity))
	}
	ev.Reasons = append(ev.Reasons, caseSpecificReasons(c.Content)...)
	if contra := findContradiction(c, mainRules); contra != "" {
		ev.Reasons = append(ev.Reasons, contra)
	}

	ev.Eligible = len(ev.Reasons) == 0
	return ev
}

// caseSpecificReasons reports every marker tying the content to one
// particular matter. Generic lessons carry none of them.
func caseSpecificReasons(content string) []string {
	var reasons []string
	if m := caseNumberRe.FindString(content); m != "" {
		reasons = append(reasons, fmt.Sprintf("case-specific: contains case-style number %q", m))
	}
	if m := numericDateRe.FindString(content); m != "" {
		reasons = append(reasons, fmt.Sprintf("case-specific: contains date %q", m))
	} else if m := monthDateRe.FindString(content); m != "" {
		reasons = append(reasons, fmt.Sprintf("case-specific: contains date %q", m))
	}
	if m := addressRe.FindString(content); m != "" {
		reasons = append(reasons, fmt.Sprintf("case-specific: contains address marker %q", m))
	}
	for _, span := range capitalSpanRe.FindAllString(content, -1) {
		if _, generic := genericLegalTerms[span]; !generic {
			reasons = append(reasons, fmt.Sprintf("case-specific: contains proper noun %q", span))
			break
		}
	}
	return reasons
}

// findContradiction reports a main rule sharing the candidate's section or
// category whose action forms a known opposite pair with the candidate's.
func findContradiction(c model.StagingRule, mainRules []model.MainRule) string {
	action := strings.ToLower(strings.TrimSpace(c.Action))
	opposite, known := oppositeActions[action]
	if !known {
		return ""
	}
	for _, m := range mainRules {
		sameScope := (c.SectionID != "" && c.SectionID == m.SectionID) ||
			(c.RuleCategory != "" && strings.EqualFold(c.RuleCategory, m.RuleCategory))
		if !sameScope {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(m.Action), opposite) {
			return fmt.Sprintf("contradicts main rule %s: %q vs %q on %s",
				m.ID, action, opposite, scopeName(c))
		}
	}
	return ""
}

func scopeName(c model.StagingRule) string {
	if c.SectionID != "" {
		return "section " + c.SectionID
	}
	return "category " + c.RuleCategory
}
