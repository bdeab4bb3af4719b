// Package facts checks that the structured facts a drafting session holds
// are sufficient for the resolved document type, and that jurisdiction
// information is present. Absence is reported, never inferred.
package facts

import (
	_ "embed"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/lexfoundry/draftgate/internal/model"
)

//go:embed requirements.yaml
var requirementsYAML []byte

type requirement struct {
	Required    []string `yaml:"required"`
	Recommended []string `yaml:"recommended"`
}

type requirementsFile struct {
	Generic       requirement            `yaml:"generic"`
	DocumentTypes map[string]requirement `yaml:"documentTypes"`
}

// jurisdictionKeys are interchangeable; any one of them satisfies the
// jurisdiction requirement.
var jurisdictionKeys = []string{"jurisdiction", "state", "district"}

// forumKeys identify the forum for litigation document types.
var forumKeys = []string{"court_name", "forum", "court"}

const governingLawKey = "governing_law"

var litigationTypes = map[string]struct{}{
	"bail_application":        {},
	"writ_petition":           {},
	"civil_suit":              {},
	"consumer_complaint":      {},
	"cheque_bounce_complaint": {},
	"divorce_petition":        {},
}

var transactionalTypes = map[string]struct{}{
	"rental_agreement":    {},
	"sale_agreement":      {},
	"employment_contract": {},
}

// CompletenessResult reports which fact keys a document type still needs.
// Recommended keys never block.
type CompletenessResult struct {
	Passed             bool     `json:"passed"`
	DocType            string   `json:"docType"`
	MissingRequired    []string `json:"missingRequired,omitempty"`
	MissingRecommended []string `json:"missingRecommended,omitempty"`
}

// JurisdictionResult reports missing jurisdiction/forum/governing-law
// information. Missing lists the absent requirement names.
type JurisdictionResult struct {
	Passed          bool     `json:"passed"`
	HasJurisdiction bool     `json:"hasJurisdiction"`
	Missing         []string `json:"missing,omitempty"`
}

// Validator holds the parsed requirement tables. Construct with New.
type Validator struct {
	generic requirement
	byType  map[string]requirement
}

// New parses the embedded requirements table.
func New() (*Validator, error) {
	var f requirementsFile
	if err := yaml.Unmarshal(requirementsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse requirements: %w", err)
	}
	return &Validator{generic: f.Generic, byType: f.DocumentTypes}, nil
}

// Requirements returns the required/recommended keys for a document type,
// falling back to the generic entry for unknown types.
func (v *Validator) Requirements(docType string) (required, recommended []string) {
	r, ok := v.byType[normalizeDocType(docType)]
	if !ok {
		r = v.generic
	}
	return r.Required, r.Recommended
}

// CheckCompleteness verifies every required key is present with a value.
func (v *Validator) CheckCompleteness(docType string, facts model.FactSet) CompletenessResult {
	required, recommended := v.Requirements(docType)
	res := CompletenessResult{DocType: normalizeDocType(docType)}
	for _, k := range required {
		if !facts.Has(k) {
			res.MissingRequired = append(res.MissingRequired, k)
		}
	}
	for _, k := range recommended {
		if !facts.Has(k) {
			res.MissingRecommended = append(res.MissingRecommended, k)
		}
	}
	res.Passed = len(res.MissingRequired) == 0
	return res
}

// CheckJurisdiction verifies jurisdiction is identifiable, plus the forum
// for litigation types and the governing law for transactional types.
// courtType is the resolved forum classification; it may stand in for a
// forum fact but never for jurisdiction itself.
func (v *Validator) CheckJurisdiction(docType, courtType string, facts model.FactSet) JurisdictionResult {
	res := JurisdictionResult{}
	res.HasJurisdiction = anyPresent(facts, jurisdictionKeys)
	if !res.HasJurisdiction {
		res.Missing = append(res.Missing, "jurisdiction")
	}

	dt := normalizeDocType(docType)
	if _, lit := litigationTypes[dt]; lit {
		if !anyPresent(facts, forumKeys) && strings.TrimSpace(courtType) == "" {
			res.Missing = append(res.Missing, "forum")
		}
	}
	if _, tx := transactionalTypes[dt]; tx {
		if !facts.Has(governingLawKey) {
			res.Missing = append(res.Missing, governingLawKey)
		}
	}
	res.Passed = len(res.Missing) == 0
	return res
}

// HasJurisdiction reports whether any of the interchangeable jurisdiction
// keys carries a value. The clarification aggregator uses this to decide
// whether to ask.
func HasJurisdiction(facts model.FactSet) bool {
	return anyPresent(facts, jurisdictionKeys)
}

func anyPresent(facts model.FactSet, keys []string) bool {
	for _, k := range keys {
		if facts.Has(k) {
			return true
		}
	}
	return false
}

func normalizeDocType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
