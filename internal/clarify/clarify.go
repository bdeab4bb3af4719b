// Package clarify collects every missing-information and hard-stop signal
// the other gates produced into one deduplicated question list. Hard blocks
// are surfaced separately and never folded into questions.
package clarify

import (
	_ "embed"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/lexfoundry/draftgate/internal/facts"
	"github.com/lexfoundry/draftgate/internal/model"
)

//go:embed mandatory.yaml
var mandatoryYAML []byte

// lowConfidenceThreshold below which the document type itself becomes a
// question.
const lowConfidenceThreshold = 0.50

type mandatoryEntry struct {
	Field    string `yaml:"field"`
	Question string `yaml:"question"`
}

type mandatoryFile struct {
	DocumentTypes map[string][]mandatoryEntry `yaml:"documentTypes"`
}

// HardBlock is a non-negotiable stop raised by an upstream gate.
type HardBlock struct {
	Gate   string `json:"gate"`
	Reason string `json:"reason"`
}

// Result is the aggregator output. NeedsClarification is true whenever
// there is anything to ask or any hard block to surface.
type Result struct {
	Passed             bool                          `json:"passed"`
	NeedsClarification bool                          `json:"needsClarification"`
	Questions          []model.ClarificationQuestion `json:"questions,omitempty"`
	HardBlocks         []HardBlock                   `json:"hardBlocks,omitempty"`
}

// Input is everything the aggregator inspects.
type Input struct {
	Facts       model.FactSet
	Route       model.ResolvedRoute
	GateResults []model.GateResult
}

// Aggregator dedupes questions first-occurrence-wins, keyed by field name.
type Aggregator struct {
	mandatory map[string][]mandatoryEntry
}

// New parses the embedded mandatory-fact table.
func New() (*Aggregator, error) {
	var f mandatoryFile
	if err := yaml.Unmarshal(mandatoryYAML, &f); err != nil {
		return nil, fmt.Errorf("parse mandatory table: %w", err)
	}
	return &Aggregator{mandatory: f.DocumentTypes}, nil
}

// Aggregate builds the question list in a fixed order: jurisdiction first,
// then upstream gate signals, then the low-confidence document-type
// confirmation, then absent mandatory facts.
func (a *Aggregator) Aggregate(in Input) Result {
	res := Result{}
	seen := map[string]struct{}{}

	add := func(q model.ClarificationQuestion) {
		key := strings.ToLower(strings.TrimSpace(q.Field))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		res.Questions = append(res.Questions, q)
	}

	if !facts.HasJurisdiction(in.Facts) {
		add(model.ClarificationQuestion{
			Field:    "jurisdiction",
			Question: "Which state or district does this matter belong to?",
			Origin:   "clarification",
		})
	}

	for _, gr := range in.GateResults {
		if gr.HardBlock || hasActionRequired(gr) {
			res.HardBlocks = append(res.HardBlocks, HardBlock{Gate: gr.Gate, Reason: blockReason(gr)})
		}
		if !gr.NeedsClarify {
			continue
		}
		if len(gr.Conflicts) > 0 {
			for _, c := range gr.Conflicts {
				add(model.ClarificationQuestion{
					Field:    c.Field,
					Question: conflictQuestion(c),
					Origin:   gr.Gate,
				})
			}
			continue
		}
		for _, f := range gr.MissingFields {
			add(model.ClarificationQuestion{
				Field:    f,
				Question: fmt.Sprintf("Please provide a value for %q.", f),
				Origin:   gr.Gate,
			})
		}
	}

	if in.Route.Confidence < lowConfidenceThreshold {
		add(model.ClarificationQuestion{
			Field:    "document_type",
			Question: docTypeQuestion(in.Route.DocType),
			Origin:   "clarification",
		})
	}

	for _, entry := range a.mandatory[strings.ToLower(strings.TrimSpace(in.Route.DocType))] {
		if !in.Facts.Has(entry.Field) {
			add(model.ClarificationQuestion{
				Field:    entry.Field,
				Question: entry.Question,
				Origin:   "clarification",
			})
		}
	}

	res.NeedsClarification = len(res.Questions) > 0 || len(res.HardBlocks) > 0
	res.Passed = !res.NeedsClarification
	return res
}

// Placeholders derives the placeholder map from the question list. The
// generation step is contractually required to emit these markers instead
// of inventing values.
func Placeholders(questions []model.ClarificationQuestion) map[string]string {
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		key := strings.TrimSpace(q.Field)
		if key == "" {
			continue
		}
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = "{{" + strings.ToUpper(key) + "}}"
	}
	return out
}

func hasActionRequired(gr model.GateResult) bool {
	if gr.Passed {
		return false
	}
	for _, r := range gr.Reasons {
		if strings.Contains(strings.ToLower(r), "action required") {
			return true
		}
	}
	return false
}

func blockReason(gr model.GateResult) string {
	if len(gr.Reasons) > 0 {
		return gr.Reasons[0]
	}
	return "hard block raised by " + gr.Gate
}

func conflictQuestion(c model.FieldConflict) string {
	if c.Reason == "no_value_from_either" || (c.RuleValue == "" && c.SemanticValue == "") {
		return fmt.Sprintf("We could not determine %q from your description. Please specify it.", c.Field)
	}
	return fmt.Sprintf("We found conflicting values for %q (%q vs %q). Which is correct?",
		c.Field, c.RuleValue, c.SemanticValue)
}

func docTypeQuestion(current string) string {
	if strings.TrimSpace(current) == "" {
		return "What type of document do you need drafted?"
	}
	return fmt.Sprintf("We think you need a %q. Is that correct?", current)
}
