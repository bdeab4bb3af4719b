// Package route reconciles the keyword classifier's guess with the
// semantic classifier's, field by field, into one resolved route. When the
// two disagree and neither is confident enough the field stays unresolved;
// the resolver never guesses.
package route

import (
	"strings"

	"github.com/lexfoundry/draftgate/internal/model"
)

const (
	// ruleConfThreshold lets a confident keyword match win a disputed field.
	ruleConfThreshold = 0.80
	// semanticConfThreshold is higher: the model must be surer than the
	// rule table to override it.
	semanticConfThreshold = 0.85
)

// baseAgents is every pipeline agent a drafting session always needs, in
// execution order.
var baseAgents = []string{"template", "compliance", "localization", "prayer", "drafting"}

// researchAgents are prefixed for proceeding types that live on precedent.
var researchAgents = []string{"research", "citation"}

var researchHeavyProceedings = map[string]struct{}{
	"writ":           {},
	"appeal":         {},
	"revision":       {},
	"pil":            {},
	"constitutional": {},
	"review":         {},
}

// Result is the route gate output.
type Result struct {
	Passed bool                `json:"passed"`
	Route  model.ResolvedRoute `json:"route"`
}

// Resolve reconciles the two classifications. Conflict handling per field:
// equal values agree; one empty side yields to the other; both empty or an
// unresolvable disagreement records a conflict and flags clarification.
func Resolve(rule, semantic model.Classification) Result {
	route := model.ResolvedRoute{}

	route.DocType = resolveField("docType", rule.DocType, semantic.DocType, rule.Confidence, semantic.Confidence, &route)
	route.CourtType = resolveField("courtType", rule.CourtType, semantic.CourtType, rule.Confidence, semantic.Confidence, &route)
	route.LegalDomain = resolveField("legalDomain", rule.LegalDomain, semantic.LegalDomain, rule.Confidence, semantic.Confidence, &route)

	// These dimensions only the semantic classifier produces.
	route.ProceedingType = strings.TrimSpace(semantic.ProceedingType)
	route.DraftGoal = strings.TrimSpace(semantic.DraftGoal)
	route.Language = strings.TrimSpace(semantic.Language)
	route.DraftStyle = strings.TrimSpace(semantic.DraftStyle)

	route.Confidence = rule.Confidence
	if semantic.Confidence > route.Confidence {
		route.Confidence = semantic.Confidence
	}

	route.AgentsRequired = agentsFor(route.ProceedingType)
	route.NeedsClarification = len(route.Conflicts) > 0

	return Result{
		Passed: route.DocType != "" && len(route.Conflicts) == 0,
		Route:  route,
	}
}

func resolveField(name, ruleVal, semVal string, ruleConf, semConf float64, route *model.ResolvedRoute) string {
	rv := strings.TrimSpace(ruleVal)
	sv := strings.TrimSpace(semVal)

	switch {
	case rv != "" && sv != "" && strings.EqualFold(normalizeSpace(rv), normalizeSpace(sv)):
		return rv
	case rv != "" && sv == "":
		return rv
	case rv == "" && sv != "":
		return sv
	case rv == "" && sv == "":
		route.Conflicts = append(route.Conflicts, model.FieldConflict{
			Field:  name,
			Reason: "no_value_from_either",
		})
		return ""
	}

	// Both present and different.
	if ruleConf >= ruleConfThreshold {
		return rv
	}
	if semConf >= semanticConfThreshold {
		return sv
	}
	route.Conflicts = append(route.Conflicts, model.FieldConflict{
		Field:         name,
		RuleValue:     rv,
		SemanticValue: sv,
		RuleConf:      ruleConf,
		SemanticConf:  semConf,
		Reason:        "unresolvable_conflict",
	})
	return ""
}

func agentsFor(proceedingType string) []string {
	agents := make([]string, 0, len(baseAgents)+len(researchAgents))
	if _, heavy := researchHeavyProceedings[strings.ToLower(strings.TrimSpace(proceedingType))]; heavy {
		agents = append(agents, researchAgents...)
	}
	return append(agents, baseAgents...)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
