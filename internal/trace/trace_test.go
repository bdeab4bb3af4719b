package trace

import (
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func TestCheck_UntracedAmountIsHighSeverity(t *testing.T) {
	res := Check("The complainant is owed ₹5,00,000 by the accused.", nil)
	if res.Passed {
		t.Fatalf("expected failure for untraced amount")
	}
	if len(res.Untraced) != 1 {
		t.Fatalf("got %+v", res.Untraced)
	}
	u := res.Untraced[0]
	if u.Class != ClassAmount || u.Value != "500000" || u.Severity != "high" {
		t.Fatalf("got %+v", u)
	}
}

func TestCheck_AmountTracedViaFactKeyHeuristic(t *testing.T) {
	res := Check("The complainant is owed ₹5,00,000 by the accused.", []model.Fact{
		{Key: "settlement_amount", Value: "500000"},
	})
	if !res.Passed || len(res.Untraced) != 0 {
		t.Fatalf("expected traced amount, got %+v", res.Untraced)
	}
}

func TestCheck_DateFormatsCompareEqual(t *testing.T) {
	res := Check("The incident occurred on 15 January 2024.", []model.Fact{
		{Key: "incident_date", Value: "15/01/2024"},
	})
	for _, u := range res.Untraced {
		if u.Class == ClassDate {
			t.Fatalf("same date in different formats must trace: %+v", res.Untraced)
		}
	}
}

func TestCheck_UntracedDateIsMediumAndPasses(t *testing.T) {
	res := Check("The hearing is listed for 03/04/2024.", nil)
	if !res.Passed {
		t.Fatalf("medium severity alone must not fail the gate")
	}
	if len(res.Untraced) != 1 || res.Untraced[0].Severity != "medium" {
		t.Fatalf("got %+v", res.Untraced)
	}
}

func TestCheck_CaseNumberNearKeyword(t *testing.T) {
	res := Check("In FIR No. 123/2024 registered at MG Road police station.", []model.Fact{
		{Key: "fir_number", Value: "123/2024"},
	})
	if !res.Passed {
		t.Fatalf("expected traced FIR number, got %+v", res.Untraced)
	}

	res = Check("In FIR No. 999/2024 the accused was named.", []model.Fact{
		{Key: "fir_number", Value: "123/2024"},
	})
	if res.Passed {
		t.Fatalf("expected untraced FIR number to fail")
	}
}

func TestCheck_BareNumberYearWithoutKeywordIgnored(t *testing.T) {
	res := Check("Reference value 42/7 has no case keyword nearby at all.", nil)
	for _, u := range res.Untraced {
		if u.Class == ClassCaseNum {
			t.Fatalf("number/year without a case keyword must not extract: %+v", u)
		}
	}
}

func TestCheck_ChequeNumber(t *testing.T) {
	res := Check("cheque bearing number 004512 drawn on SBI was dishonoured", []model.Fact{
		{Key: "cheque_number", Value: "004512"},
	})
	if !res.Passed {
		t.Fatalf("expected traced cheque number, got %+v", res.Untraced)
	}
}

func TestCheck_LegalSectionsLowercased(t *testing.T) {
	res := Check("The offence u/s 138 read with Section 420 IPC is made out.", []model.Fact{
		{Key: "offence_sections", Value: "138, 420"},
	})
	for _, u := range res.Untraced {
		if u.Class == ClassSection {
			t.Fatalf("sections should trace against the section fact: %+v", res.Untraced)
		}
	}
}

func TestCheck_NarrativeTextNeverInspected(t *testing.T) {
	res := Check("The accused has deep roots in society and is unlikely to abscond.", nil)
	if !res.Passed || len(res.Untraced) != 0 {
		t.Fatalf("pure narrative must produce no entities: %+v", res.Untraced)
	}
}
