package citation

import (
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func TestValidate_EmptyListTriviallyPasses(t *testing.T) {
	res := Validate(nil, nil)
	if !res.Passed || !res.ConfidencePassed || !res.HashPassed {
		t.Fatalf("empty list must pass both phases: %+v", res)
	}
}

func TestValidate_HighConfidenceWithoutHashStillDiscarded(t *testing.T) {
	c := model.Citation{Text: "State v. X", Confidence: 0.9}
	res := Validate([]model.Citation{c}, map[string]struct{}{})
	if !res.ConfidencePassed {
		t.Fatalf("confidence phase should pass at 0.9")
	}
	if res.HashPassed || res.Passed {
		t.Fatalf("hash phase must fail without a hash: %+v", res)
	}
	if len(res.Discarded) != 1 || res.Discarded[0].Reason != ReasonNoHash {
		t.Fatalf("got %+v", res.Discarded)
	}
}

func TestValidate_HashNotInVerifiedSet(t *testing.T) {
	c := model.Citation{Text: "State v. X", Confidence: 0.9, VerificationHash: HashOf("State v. X")}
	res := Validate([]model.Citation{c}, map[string]struct{}{"deadbeef": {}})
	if len(res.Discarded) != 1 || res.Discarded[0].Reason != ReasonHashNotListed {
		t.Fatalf("got %+v", res.Discarded)
	}
}

func TestValidate_VerifiedCitationKept(t *testing.T) {
	hash := HashOf("Arnesh Kumar v. State of Bihar")
	c := model.Citation{Text: "Arnesh Kumar v. State of Bihar", Confidence: 0.8, VerificationHash: hash}
	res := Validate([]model.Citation{c}, map[string]struct{}{hash: {}})
	if !res.Passed {
		t.Fatalf("expected pass: %+v", res)
	}
	if len(res.Verified) != 1 {
		t.Fatalf("expected citation kept, got %+v", res)
	}
}

func TestValidate_LowConfidenceReportedNotDiscarded(t *testing.T) {
	hash := HashOf("weak citation")
	c := model.Citation{Text: "weak citation", Confidence: 0.3, VerificationHash: hash}
	res := Validate([]model.Citation{c}, map[string]struct{}{hash: {}})
	if res.ConfidencePassed {
		t.Fatalf("confidence phase should fail at 0.3")
	}
	if len(res.LowConfidence) != 1 {
		t.Fatalf("expected low-confidence report")
	}
	// The hash phase still keeps it; low confidence alone does not discard.
	if len(res.Verified) != 1 || res.HashPassed != true {
		t.Fatalf("hash phase should keep the verified citation: %+v", res)
	}
	if res.Passed {
		t.Fatalf("combined gate must fail")
	}
}

func TestValidate_SourceDocIDSatisfiesConfidencePhase(t *testing.T) {
	hash := HashOf("attributed citation")
	c := model.Citation{Text: "attributed citation", Confidence: 0.1, SourceDocID: "doc-7", VerificationHash: hash}
	res := Validate([]model.Citation{c}, map[string]struct{}{hash: {}})
	if !res.Passed {
		t.Fatalf("attribution should satisfy the confidence phase: %+v", res)
	}
}
