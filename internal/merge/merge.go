// Package merge folds template structure, compliance rules, localization
// rules, relief clauses, and optional research/citation bundles into one
// ordered section list for the generation step. The fold is deterministic
// and idempotent: identical inputs always produce the identical list, and
// no section supplied by any input is ever dropped.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexfoundry/draftgate/internal/clarify"
	"github.com/lexfoundry/draftgate/internal/model"
)

// Orders assigned to appended sections so they land after any sane
// template body while keeping relative positions fixed.
const (
	orderPrayer    = 900
	orderCitations = 910
	orderResearch  = 920
	orderAnnexures = 930
)

// Template is the expanded section skeleton for a document type.
type Template struct {
	DocType  string          `json:"docType"`
	Sections []model.Section `json:"sections"`
}

// ComplianceReport carries the mandatory structure a forum imposes.
type ComplianceReport struct {
	MandatorySections  []string `json:"mandatorySections,omitempty"`
	MandatoryAnnexures []string `json:"mandatoryAnnexures,omitempty"`
	HardBlocks         []string `json:"hardBlocks,omitempty"`
}

// LocalizationRules carry jurisdiction-specific formatting and sections.
type LocalizationRules struct {
	Language           string          `json:"language,omitempty"`
	DateFormat         string          `json:"dateFormat,omitempty"`
	NumberingStyle     string          `json:"numberingStyle,omitempty"`
	CourtHeaderFormat  string          `json:"courtHeaderFormat,omitempty"`
	StampPaperRequired bool            `json:"stampPaperRequired,omitempty"`
	ExtraSections      []model.Section `json:"extraSections,omitempty"`
	HardBlocks         []string        `json:"hardBlocks,omitempty"`
}

// ReliefPack is the consolidated prayer content.
type ReliefPack struct {
	Reliefs    []string `json:"reliefs,omitempty"`
	HardBlocks []string `json:"hardBlocks,omitempty"`
}

// ResearchItem is one piece of supporting research.
type ResearchItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	SourceDocID string `json:"sourceDocId,omitempty"`
}

// ResearchBundle is optional background research to attach.
type ResearchBundle struct {
	Items      []ResearchItem `json:"items,omitempty"`
	HardBlocks []string       `json:"hardBlocks,omitempty"`
}

// CitationPack is the set of verified citations to attach.
type CitationPack struct {
	Citations  []model.Citation `json:"citations,omitempty"`
	HardBlocks []string         `json:"hardBlocks,omitempty"`
}

// Input bundles the six optional components plus the clarification
// questions the placeholder map derives from.
type Input struct {
	Template     *Template
	Compliance   *ComplianceReport
	Localization *LocalizationRules
	Reliefs      *ReliefPack
	Research     *ResearchBundle
	Citations    *CitationPack
	Questions    []model.ClarificationQuestion
}

// SectionConflict records a disagreement between template and compliance
// over one section. Compliance always wins; the conflict is reported so
// the template can be fixed.
type SectionConflict struct {
	SectionID string `json:"sectionId"`
	Detail    string `json:"detail"`
}

// Result is the merged document context.
type Result struct {
	Passed       bool              `json:"passed"`
	Sections     []model.Section   `json:"sections"`
	Conflicts    []SectionConflict `json:"conflicts,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	HardBlocks   []string          `json:"hardBlocks,omitempty"`
	Placeholders map[string]string `json:"placeholders,omitempty"`
}

// transform is one step of the fold: it receives the section list built so
// far and returns the extended list plus any warnings it raised.
type transform func(sections []model.Section) ([]model.Section, []string)

// Merge runs the fold: template, compliance, localization, reliefs,
// citations, research, then conflict detection, hard-block collection, a
// stable sort by order, and the placeholder map.
func Merge(in Input) Result {
	res := Result{}

	var sections []model.Section
	if in.Template != nil {
		sections = append(sections, in.Template.Sections...)
	}

	steps := []transform{
		applyCompliance(in.Compliance),
		applyLocalization(in.Localization),
		appendReliefs(in.Reliefs),
		appendCitations(in.Citations),
		appendResearch(in.Research),
	}
	for _, step := range steps {
		var warnings []string
		sections, warnings = step(sections)
		res.Warnings = append(res.Warnings, warnings...)
	}

	res.Conflicts = detectConflicts(in.Template, in.Compliance)
	res.HardBlocks = collectHardBlocks(in)

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
	res.Sections = sections

	res.Placeholders = clarify.Placeholders(in.Questions)
	res.Passed = len(res.HardBlocks) == 0
	return res
}

// applyCompliance forces compliance-mandated sections to required and
// appends a placeholder section for every mandatory annexure the template
// did not already carry.
func applyCompliance(c *ComplianceReport) transform {
	return func(sections []model.Section) ([]model.Section, []string) {
		if c == nil {
			return sections, nil
		}
		var warnings []string
		mandatory := toSet(c.MandatorySections)
		for i := range sections {
			if _, ok := mandatory[sections[i].ID]; !ok {
				continue
			}
			if !sections[i].Required {
				warnings = append(warnings,
					fmt.Sprintf("section %q upgraded to required by compliance", sections[i].ID))
			}
			sections[i].Required = true
		}
		present := map[string]struct{}{}
		for _, s := range sections {
			present[s.ID] = struct{}{}
		}
		for i, name := range c.MandatoryAnnexures {
			id := "annexure_" + slug(name)
			if _, ok := present[id]; ok {
				continue
			}
			sections = append(sections, model.Section{
				ID:          id,
				Title:       "Annexure: " + name,
				Order:       orderAnnexures + i,
				SectionType: "annexure",
				Required:    true,
				Content:     "{{ANNEXURE_" + strings.ToUpper(slug(name)) + "}}",
				Source:      "compliance",
			})
		}
		return sections, warnings
	}
}

// applyLocalization stamps formatting metadata on every section and
// appends jurisdiction-specific extra sections.
func applyLocalization(l *LocalizationRules) transform {
	return func(sections []model.Section) ([]model.Section, []string) {
		if l == nil {
			return sections, nil
		}
		stamp := map[string]string{}
		if l.Language != "" {
			stamp["language"] = l.Language
		}
		if l.DateFormat != "" {
			stamp["date_format"] = l.DateFormat
		}
		if l.NumberingStyle != "" {
			stamp["numbering_style"] = l.NumberingStyle
		}
		if l.CourtHeaderFormat != "" {
			stamp["court_header_format"] = l.CourtHeaderFormat
		}
		if l.StampPaperRequired {
			stamp["stamp_paper"] = "required"
		}
		for i := range sections {
			if sections[i].Meta == nil {
				sections[i].Meta = map[string]string{}
			}
			for k, v := range stamp {
				sections[i].Meta[k] = v
			}
		}
		for _, extra := range l.ExtraSections {
			if extra.Source == "" {
				extra.Source = "localization"
			}
			sections = append(sections, extra)
		}
		return sections, nil
	}
}

// appendReliefs adds the single consolidated prayer section, only when
// reliefs exist.
func appendReliefs(r *ReliefPack) transform {
	return func(sections []model.Section) ([]model.Section, []string) {
		if r == nil || len(r.Reliefs) == 0 {
			return sections, nil
		}
		var b strings.Builder
		for i, relief := range r.Reliefs {
			fmt.Fprintf(&b, "%c) %s\n", 'a'+i, relief)
		}
		return append(sections, model.Section{
			ID:          "prayer",
			Title:       "Prayer",
			Order:       orderPrayer,
			SectionType: "prayer",
			Required:    true,
			Content:     strings.TrimRight(b.String(), "\n"),
			Source:      "reliefs",
		}), nil
	}
}

func appendCitations(c *CitationPack) transform {
	return func(sections []model.Section) ([]model.Section, []string) {
		if c == nil || len(c.Citations) == 0 {
			return sections, nil
		}
		var b strings.Builder
		for i, cit := range c.Citations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, cit.Text)
		}
		return append(sections, model.Section{
			ID:          "citations",
			Title:       "Citations",
			Order:       orderCitations,
			SectionType: "citations",
			Content:     strings.TrimRight(b.String(), "\n"),
			Source:      "citations",
		}), nil
	}
}

func appendResearch(r *ResearchBundle) transform {
	return func(sections []model.Section) ([]model.Section, []string) {
		if r == nil || len(r.Items) == 0 {
			return sections, nil
		}
		var b strings.Builder
		for _, item := range r.Items {
			b.WriteString("- " + item.Title)
			if item.Summary != "" {
				b.WriteString(": " + item.Summary)
			}
			b.WriteString("\n")
		}
		return append(sections, model.Section{
			ID:          "research",
			Title:       "Supporting Research",
			Order:       orderResearch,
			SectionType: "research",
			Content:     strings.TrimRight(b.String(), "\n"),
			Source:      "research",
		}), nil
	}
}

// detectConflicts reports every section compliance marks mandatory while
// the template marks optional. Precedence is already enforced by
// applyCompliance; the report exists for audit.
func detectConflicts(t *Template, c *ComplianceReport) []SectionConflict {
	if t == nil || c == nil {
		return nil
	}
	mandatory := toSet(c.MandatorySections)
	var out []SectionConflict
	for _, s := range t.Sections {
		if _, ok := mandatory[s.ID]; ok && !s.Required {
			out = append(out, SectionConflict{
				SectionID: s.ID,
				Detail:    "template marks optional but compliance requires it; compliance wins",
			})
		}
	}
	return out
}

func collectHardBlocks(in Input) []string {
	var out []string
	if in.Compliance != nil {
		out = append(out, in.Compliance.HardBlocks...)
	}
	if in.Localization != nil {
		out = append(out, in.Localization.HardBlocks...)
	}
	if in.Reliefs != nil {
		out = append(out, in.Reliefs.HardBlocks...)
	}
	if in.Research != nil {
		out = append(out, in.Research.HardBlocks...)
	}
	if in.Citations != nil {
		out = append(out, in.Citations.HardBlocks...)
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}
