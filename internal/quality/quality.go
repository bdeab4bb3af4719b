// Package quality runs structural completeness checks on generated draft
// text: length, residual placeholder markers, required headings, and a
// weak line-count signal. Emptiness is the only individually fatal check.
package quality

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed headings.yaml
var headingsYAML []byte

const (
	minChars = 200
	minLines = 5
)

// EmptyDraftIssue is the single issue reported for an empty draft.
const EmptyDraftIssue = "Draft content is empty"

// placeholderRes is the fixed set of residue markers a finished draft must
// not contain.
var placeholderRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[INSERT[^\]]*\]`),
	regexp.MustCompile(`(?i)\[TODO[^\]]*\]`),
	regexp.MustCompile(`(?i)\[PLACEHOLDER[^\]]*\]`),
	regexp.MustCompile(`(?i)<TODO[^>]*>`),
	regexp.MustCompile(`\{\{[A-Z0-9_]+\}\}`),
	regexp.MustCompile(`\bXXX+\b`),
	regexp.MustCompile(`(?i)\bTBD\b`),
}

type headingsFile struct {
	Generic       []string            `yaml:"generic"`
	DocumentTypes map[string][]string `yaml:"documentTypes"`
}

// Result is the quality gate output.
type Result struct {
	Passed bool     `json:"passed"`
	Issues []string `json:"issues,omitempty"`
}

// Checker holds the parsed heading table. Construct with New.
type Checker struct {
	generic []string
	byType  map[string][]string
}

// New parses the embedded heading table.
func New() (*Checker, error) {
	var f headingsFile
	if err := yaml.Unmarshal(headingsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse headings: %w", err)
	}
	return &Checker{generic: f.Generic, byType: f.DocumentTypes}, nil
}

// Check runs all checks and accumulates issues; the gate passes only with
// none. An empty draft short-circuits with a single issue.
func (c *Checker) Check(docType, draft string) Result {
	if strings.TrimSpace(draft) == "" {
		return Result{Passed: false, Issues: []string{EmptyDraftIssue}}
	}

	var issues []string

	if len(draft) < minChars {
		issues = append(issues, fmt.Sprintf("Draft is too short: %d characters, minimum %d", len(draft), minChars))
	}

	for _, re := range placeholderRes {
		if m := re.FindString(draft); m != "" {
			issues = append(issues, fmt.Sprintf("Residual placeholder marker found: %q", m))
		}
	}

	lower := strings.ToLower(draft)
	for _, name := range c.headingsFor(docType) {
		needle := strings.ToLower(strings.ReplaceAll(name, "_", " "))
		if !strings.Contains(lower, needle) {
			issues = append(issues, fmt.Sprintf("Missing required section: %q", needle))
		}
	}

	if lines := countNonEmptyLines(draft); lines < minLines {
		issues = append(issues, fmt.Sprintf("Draft has only %d lines, minimum %d", lines, minLines))
	}

	return Result{Passed: len(issues) == 0, Issues: issues}
}

func (c *Checker) headingsFor(docType string) []string {
	key := strings.ToLower(strings.TrimSpace(docType))
	if h, ok := c.byType[key]; ok {
		return h
	}
	return c.generic
}

func countNonEmptyLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
