// Package trace extracts verifiable entities from generated text and
// cross-references them against the fact base. Only five structured
// classes are inspected: monetary amounts, dates, case/FIR numbers, cheque
// numbers, and legal-section references. Narrative text is never judged.
package trace

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexfoundry/draftgate/internal/model"
)

// Entity classes.
const (
	ClassAmount  = "amount"
	ClassDate    = "date"
	ClassCaseNum = "case_number"
	ClassCheque  = "cheque_number"
	ClassSection = "legal_section"
)

// severityFor maps entity classes to the severity of an untraced value.
// Amounts and identifying numbers are high; dates and sections medium.
var severityFor = map[string]string{
	ClassAmount:  "high",
	ClassCaseNum: "high",
	ClassCheque:  "high",
	ClassDate:    "medium",
	ClassSection: "medium",
}

// UntracedEntity is a value present in the draft with no matching fact.
type UntracedEntity struct {
	Class    string `json:"class"`
	Value    string `json:"value"`
	Severity string `json:"severity"`
}

// Result is the traceability gate output. Passed is false only when a
// high-severity entity is untraced.
type Result struct {
	Passed   bool                `json:"passed"`
	Untraced []UntracedEntity    `json:"untracedEntities,omitempty"`
	Draft    map[string][]string `json:"draftEntities,omitempty"`
	Facts    map[string][]string `json:"factEntities,omitempty"`
}

var (
	amountRe = regexp.MustCompile(`(?i)(?:₹|\$|\brs\.?|\binr\b)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

	dateNumericRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	dateISORe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dateMonthRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(january|february|march|april|may|june|july|august|september|october|november|december)[,]?\s+(\d{4})\b`)
	monthFirstRe  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?[,]?\s+(\d{4})\b`)

	caseNumRe = regexp.MustCompile(`(?i)\b(?:fir|case|crl\.?|cc|cr|complaint|petition|suit)(?:\s+no\.?|\s+number)?[^0-9]{0,10}([0-9]{1,6}\s*/\s*[0-9]{2,4})`)
	chequeRe  = regexp.MustCompile(`(?i)\bcheque(?:\s+no\.?|\s+number|\s+bearing)?[^0-9]{0,20}([0-9]{6,})`)
	sectionRe = regexp.MustCompile(`(?i)\b(?:section|sec\.?|u/s)\s*([0-9]+[a-z]?(?:\([0-9a-z]+\))?)`)
)

var months = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// Check extracts entities from the draft and the fact base with identical
// patterns and reports draft values the fact base cannot account for.
func Check(draft string, facts []model.Fact) Result {
	draftEnts := extractAll(draft)
	factEnts := extractAll(joinFactValues(facts))
	addFactKeyHeuristics(factEnts, facts)

	res := Result{Passed: true, Draft: toLists(draftEnts), Facts: toLists(factEnts)}
	for class, values := range draftEnts {
		for v := range values {
			if _, traced := factEnts[class][v]; traced {
				continue
			}
			sev := severityFor[class]
			res.Untraced = append(res.Untraced, UntracedEntity{Class: class, Value: v, Severity: sev})
			if sev == "high" {
				res.Passed = false
			}
		}
	}
	sort.Slice(res.Untraced, func(i, j int) bool {
		if res.Untraced[i].Class != res.Untraced[j].Class {
			return res.Untraced[i].Class < res.Untraced[j].Class
		}
		return res.Untraced[i].Value < res.Untraced[j].Value
	})
	return res
}

type entitySet map[string]map[string]struct{}

func (s entitySet) add(class, value string) {
	if value == "" {
		return
	}
	if s[class] == nil {
		s[class] = map[string]struct{}{}
	}
	s[class][value] = struct{}{}
}

func extractAll(text string) entitySet {
	ents := entitySet{}
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassAmount, normalizeAmount(m[1]))
	}
	for _, m := range dateNumericRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassDate, canonDate(m[3], m[2], m[1]))
	}
	for _, m := range dateISORe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassDate, canonDate(m[1], m[2], m[3]))
	}
	for _, m := range dateMonthRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassDate, canonDate(m[3], months[strings.ToLower(m[2])], m[1]))
	}
	for _, m := range monthFirstRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassDate, canonDate(m[3], months[strings.ToLower(m[1])], m[2]))
	}
	for _, m := range caseNumRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassCaseNum, stripSpaces(m[1]))
	}
	for _, m := range chequeRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassCheque, m[1])
	}
	for _, m := range sectionRe.FindAllStringSubmatch(text, -1) {
		ents.add(ClassSection, strings.ToLower(m[1]))
	}
	return ents
}

// addFactKeyHeuristics credits facts whose keys name the class even when
// the value alone would not match a pattern, e.g. a bare "500000" under a
// key containing "amount".
func addFactKeyHeuristics(ents entitySet, facts []model.Fact) {
	for _, f := range facts {
		key := strings.ToLower(f.Key)
		val := strings.TrimSpace(f.Value)
		switch {
		case strings.Contains(key, "amount"):
			ents.add(ClassAmount, normalizeAmount(val))
		case strings.Contains(key, "date"):
			for class, vs := range extractAll("on " + val) {
				if class == ClassDate {
					for v := range vs {
						ents.add(ClassDate, v)
					}
				}
			}
		case strings.Contains(key, "fir") || strings.Contains(key, "case_n"):
			ents.add(ClassCaseNum, stripSpaces(val))
		case strings.Contains(key, "cheque"):
			ents.add(ClassCheque, stripNonDigits(val))
		case strings.Contains(key, "section"):
			for _, tok := range regexp.MustCompile(`[0-9]+[a-zA-Z]?`).FindAllString(val, -1) {
				ents.add(ClassSection, strings.ToLower(tok))
			}
		}
	}
}

func joinFactValues(facts []model.Fact) string {
	var b strings.Builder
	for _, f := range facts {
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

func normalizeAmount(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, ".00")
	return strings.TrimSpace(s)
}

// canonDate produces yyyy-mm-dd with zero-padded parts so the same date
// written in different formats compares equal.
func canonDate(year, month, day string) string {
	return pad4(year) + "-" + pad2(month) + "-" + pad2(day)
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func pad4(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toLists(ents entitySet) map[string][]string {
	out := make(map[string][]string, len(ents))
	for class, vs := range ents {
		list := make([]string, 0, len(vs))
		for v := range vs {
			list = append(list, v)
		}
		sort.Strings(list)
		out[class] = list
	}
	return out
}
