package model

import "strings"

// Fact is a single keyed datum about the matter being drafted, extracted
// upstream and supplied to every gate as an immutable input. Keys are
// conventionally snake_case identifiers such as "fir_number".
type Fact struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Confidence  float64 `json:"confidence"`
	SourceDocID string  `json:"sourceDocId,omitempty"`
}

// FactSet indexes facts by key for presence checks. Later duplicates are
// ignored; callers supply the authoritative set per invocation.
type FactSet map[string]Fact

// NewFactSet builds a FactSet keeping the first occurrence of each key.
func NewFactSet(facts []Fact) FactSet {
	set := make(FactSet, len(facts))
	for _, f := range facts {
		k := strings.TrimSpace(f.Key)
		if k == "" {
			continue
		}
		if _, ok := set[k]; !ok {
			set[k] = f
		}
	}
	return set
}

// Has reports whether a non-empty value exists for key.
func (s FactSet) Has(key string) bool {
	f, ok := s[key]
	return ok && strings.TrimSpace(f.Value) != ""
}

// Value returns the trimmed value for key, or "" when absent.
func (s FactSet) Value(key string) string {
	return strings.TrimSpace(s[key].Value)
}

// Classification is one classifier's guess at the routing dimensions of a
// drafting request. Two independent Classifications (keyword-based and
// semantic) feed the route resolver.
type Classification struct {
	DocType        string  `json:"docType"`
	CourtType      string  `json:"courtType"`
	LegalDomain    string  `json:"legalDomain"`
	ProceedingType string  `json:"proceedingType"`
	DraftGoal      string  `json:"draftGoal"`
	Language       string  `json:"language"`
	DraftStyle     string  `json:"draftStyle"`
	Confidence     float64 `json:"confidence"`
}

// FieldConflict records one routing field the resolver could not settle.
type FieldConflict struct {
	Field         string  `json:"field"`
	RuleValue     string  `json:"ruleValue"`
	SemanticValue string  `json:"semanticValue"`
	RuleConf      float64 `json:"ruleConf"`
	SemanticConf  float64 `json:"semanticConf"`
	Reason        string  `json:"reason"` // "no_value_from_either" or "unresolvable_conflict"
}

// ResolvedRoute is the reconciled classification plus the agent plan.
type ResolvedRoute struct {
	Classification
	AgentsRequired     []string        `json:"agentsRequired"`
	Conflicts          []FieldConflict `json:"conflicts,omitempty"`
	NeedsClarification bool            `json:"needsClarification"`
}

// GateResult is the uniform envelope every gate returns. Payload is the
// gate-specific detail struct; it always carries enough to explain a
// failure. HardBlock marks failures the pipeline must surface to a human
// instead of auto-resolving.
type GateResult struct {
	Gate          string   `json:"gate"`
	Passed        bool     `json:"passed"`
	HardBlock     bool     `json:"hardBlock,omitempty"`
	NeedsClarify  bool     `json:"needsClarification,omitempty"`
	MissingFields []string        `json:"missingFields,omitempty"`
	Conflicts     []FieldConflict `json:"conflicts,omitempty"`
	Reasons       []string        `json:"reasons,omitempty"`
	Payload       any             `json:"payload,omitempty"`
}

// Section is one structural unit of the merged document context. Sections
// are created by template expansion, mutated by compliance/localization
// application, and appended by relief/citation/research attachment.
type Section struct {
	ID          string            `json:"sectionId"`
	Title       string            `json:"title"`
	Order       int               `json:"order"`
	SectionType string            `json:"sectionType"`
	Required    bool              `json:"required"`
	Content     string            `json:"content,omitempty"`
	Source      string            `json:"source"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Citation is a legal authority referenced by the draft. It is valid only
// once hash-verified; confidence alone is insufficient when a hash check is
// available.
type Citation struct {
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
	SourceDocID      string  `json:"sourceDocId,omitempty"`
	VerificationHash string  `json:"verificationHash,omitempty"`
}

// ClarificationQuestion is one question to put to the user, keyed by the
// field it would resolve.
type ClarificationQuestion struct {
	Field    string `json:"field"`
	Question string `json:"question"`
	Origin   string `json:"origin"` // gate that raised it
}

// RuleStatus is the staging-rule lifecycle state. The only legal transition
// is StatusStaged -> StatusPromoted, applied exactly once by the store.
type RuleStatus string

const (
	StatusStaged   RuleStatus = "staged"
	StatusPromoted RuleStatus = "promoted"
)

// StagingRule is a candidate lesson-learned pattern awaiting proof of
// recurrence before it may graduate into the main rule set.
type StagingRule struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	DocumentType    string     `json:"documentType"`
	Content         string     `json:"content"`
	OccurrenceCount int        `json:"occurrenceCount"`
	Severity        string     `json:"severity"`
	Jurisdiction    string     `json:"jurisdiction,omitempty"`
	CourtType       string     `json:"courtType,omitempty"`
	CaseCategory    string     `json:"caseCategory,omitempty"`
	SectionID       string     `json:"sectionId,omitempty"`
	RuleCategory    string     `json:"ruleCategory,omitempty"`
	Action          string     `json:"action,omitempty"`
	Status          RuleStatus `json:"status"`
}

// MainRule is a rule trusted enough to apply automatically.
type MainRule struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	DocumentType string `json:"documentType"`
	Content      string `json:"content"`
	Severity     string `json:"severity"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	CourtType    string `json:"courtType,omitempty"`
	SectionID    string `json:"sectionId,omitempty"`
	RuleCategory string `json:"ruleCategory,omitempty"`
	Action       string `json:"action,omitempty"`
	PromotedFrom string `json:"promotedFrom"`
}

// PromotionLogEntry records one staging->main graduation for audit.
type PromotionLogEntry struct {
	ID            string `json:"id"`
	StagingRuleID string `json:"stagingRuleId"`
	MainRuleID    string `json:"mainRuleId"`
	DocumentType  string `json:"documentType"`
	Timestamp     string `json:"timestamp"`
}
