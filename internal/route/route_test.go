package route

import (
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func TestResolve_AgreementIsConflictFree(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "bail_application", Confidence: 0.6},
		model.Classification{DocType: "Bail_Application", Confidence: 0.7},
	)
	if !res.Passed {
		t.Fatalf("expected pass, conflicts: %v", res.Route.Conflicts)
	}
	if res.Route.DocType != "bail_application" {
		t.Fatalf("got %q", res.Route.DocType)
	}
}

func TestResolve_ConfidentRuleWinsDispute(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "bail_application", Confidence: 0.85},
		model.Classification{DocType: "writ_petition", Confidence: 0.60},
	)
	if res.Route.DocType != "bail_application" {
		t.Fatalf("expected rule value, got %q", res.Route.DocType)
	}
	if len(res.Route.Conflicts) != 0 || !res.Passed {
		t.Fatalf("expected conflict-free pass, got %+v", res.Route.Conflicts)
	}
}

func TestResolve_ConfidentSemanticWinsDispute(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "bail_application", Confidence: 0.50},
		model.Classification{DocType: "writ_petition", Confidence: 0.90},
	)
	if res.Route.DocType != "writ_petition" {
		t.Fatalf("expected semantic value, got %q", res.Route.DocType)
	}
}

func TestResolve_BothWeakIsUnresolvable(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "bail_application", Confidence: 0.50},
		model.Classification{DocType: "writ_petition", Confidence: 0.60},
	)
	if res.Passed {
		t.Fatalf("expected failure")
	}
	if !res.Route.NeedsClarification {
		t.Fatalf("expected clarification flag")
	}
	if len(res.Route.Conflicts) != 1 || res.Route.Conflicts[0].Reason != "unresolvable_conflict" {
		t.Fatalf("got conflicts %+v", res.Route.Conflicts)
	}
	if res.Route.DocType != "" {
		t.Fatalf("unresolved field must stay empty, got %q", res.Route.DocType)
	}
}

func TestResolve_OneSidedValueAccepted(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "affidavit", CourtType: "", Confidence: 0.4},
		model.Classification{DocType: "", CourtType: "high_court", Confidence: 0.5},
	)
	if res.Route.DocType != "affidavit" || res.Route.CourtType != "high_court" {
		t.Fatalf("got docType=%q courtType=%q", res.Route.DocType, res.Route.CourtType)
	}
}

func TestResolve_BothEmptyRecordsMissing(t *testing.T) {
	res := Resolve(model.Classification{}, model.Classification{})
	if res.Passed {
		t.Fatalf("expected failure with nothing resolved")
	}
	found := false
	for _, c := range res.Route.Conflicts {
		if c.Field == "docType" && c.Reason == "no_value_from_either" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected docType missing conflict, got %+v", res.Route.Conflicts)
	}
}

func TestResolve_MergedConfidenceIsMax(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "affidavit", Confidence: 0.3},
		model.Classification{DocType: "affidavit", Confidence: 0.8},
	)
	if res.Route.Confidence != 0.8 {
		t.Fatalf("got %v", res.Route.Confidence)
	}
}

func TestResolve_ResearchHeavyPrefixesAgents(t *testing.T) {
	res := Resolve(
		model.Classification{DocType: "writ_petition", Confidence: 0.9},
		model.Classification{DocType: "writ_petition", ProceedingType: "writ", Confidence: 0.9},
	)
	if len(res.Route.AgentsRequired) < 2 ||
		res.Route.AgentsRequired[0] != "research" || res.Route.AgentsRequired[1] != "citation" {
		t.Fatalf("expected research/citation prefix, got %v", res.Route.AgentsRequired)
	}

	plain := Resolve(
		model.Classification{DocType: "affidavit", Confidence: 0.9},
		model.Classification{DocType: "affidavit", Confidence: 0.9},
	)
	if plain.Route.AgentsRequired[0] != "template" {
		t.Fatalf("expected base agents only, got %v", plain.Route.AgentsRequired)
	}
}
