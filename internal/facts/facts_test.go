package facts

import (
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func mustNew(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func setOf(pairs ...string) model.FactSet {
	facts := make([]model.Fact, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		facts = append(facts, model.Fact{Key: pairs[i], Value: pairs[i+1], Confidence: 0.9})
	}
	return model.NewFactSet(facts)
}

func TestCompleteness_MissingKeyFailsThenAddingFlips(t *testing.T) {
	v := mustNew(t)
	facts := setOf(
		"client_name", "Ramesh Kumar",
		"fir_number", "123/2024",
		"police_station", "MG Road",
	)
	res := v.CheckCompleteness("bail_application", facts)
	if res.Passed {
		t.Fatalf("expected failure without offence_sections")
	}
	if len(res.MissingRequired) != 1 || res.MissingRequired[0] != "offence_sections" {
		t.Fatalf("got missing %v", res.MissingRequired)
	}

	facts["offence_sections"] = model.Fact{Key: "offence_sections", Value: "420, 406 IPC"}
	res = v.CheckCompleteness("bail_application", facts)
	if !res.Passed {
		t.Fatalf("expected pass after adding the key, missing %v", res.MissingRequired)
	}
}

func TestCompleteness_RecommendedNeverBlocks(t *testing.T) {
	v := mustNew(t)
	facts := setOf("client_name", "A", "statement_purpose", "visa application")
	res := v.CheckCompleteness("affidavit", facts)
	if !res.Passed {
		t.Fatalf("expected pass, missing %v", res.MissingRequired)
	}
	if len(res.MissingRecommended) == 0 {
		t.Fatalf("expected missing recommended keys to be reported")
	}
}

func TestCompleteness_UnknownTypeUsesGenericFallback(t *testing.T) {
	v := mustNew(t)
	res := v.CheckCompleteness("memorandum_of_understanding", setOf())
	if res.Passed {
		t.Fatalf("expected generic required keys to apply")
	}
	if res.MissingRequired[0] != "client_name" {
		t.Fatalf("got %v", res.MissingRequired)
	}
}

func TestCompleteness_EmptyValueCountsAsMissing(t *testing.T) {
	v := mustNew(t)
	facts := setOf("client_name", "   ")
	res := v.CheckCompleteness("affidavit", facts)
	for _, k := range res.MissingRequired {
		if k == "client_name" {
			return
		}
	}
	t.Fatalf("blank value should count as missing, got %v", res.MissingRequired)
}

func TestJurisdiction_AnyOfThreeKeysSatisfies(t *testing.T) {
	v := mustNew(t)
	for _, key := range []string{"jurisdiction", "state", "district"} {
		res := v.CheckJurisdiction("affidavit", "", setOf(key, "Karnataka"))
		if !res.HasJurisdiction {
			t.Fatalf("key %q should satisfy jurisdiction", key)
		}
	}
}

func TestJurisdiction_NeverInferred(t *testing.T) {
	v := mustNew(t)
	// Facts strongly hint at a place but no jurisdiction key is present.
	res := v.CheckJurisdiction("affidavit", "high_court", setOf("client_address", "Bengaluru, Karnataka"))
	if res.HasJurisdiction || res.Passed {
		t.Fatalf("jurisdiction must not be inferred from other facts")
	}
}

func TestJurisdiction_LitigationNeedsForum(t *testing.T) {
	v := mustNew(t)
	res := v.CheckJurisdiction("bail_application", "", setOf("state", "Karnataka"))
	if res.Passed {
		t.Fatalf("expected forum requirement for litigation type")
	}
	if res.Missing[0] != "forum" {
		t.Fatalf("got %v", res.Missing)
	}

	// A resolved court type stands in for a forum fact.
	res = v.CheckJurisdiction("bail_application", "district_court", setOf("state", "Karnataka"))
	if !res.Passed {
		t.Fatalf("courtType should satisfy forum, missing %v", res.Missing)
	}
}

func TestJurisdiction_TransactionalNeedsGoverningLaw(t *testing.T) {
	v := mustNew(t)
	res := v.CheckJurisdiction("rental_agreement", "", setOf("state", "Karnataka"))
	if res.Passed {
		t.Fatalf("expected governing_law requirement")
	}
	res = v.CheckJurisdiction("rental_agreement", "", setOf("state", "Karnataka", "governing_law", "Karnataka Rent Act"))
	if !res.Passed {
		t.Fatalf("got missing %v", res.Missing)
	}
}
