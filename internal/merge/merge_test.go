package merge

import (
	"reflect"
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func sampleInput() Input {
	return Input{
		Template: &Template{
			DocType: "bail_application",
			Sections: []model.Section{
				{ID: "court_header", Title: "Court Header", Order: 10, SectionType: "header", Required: true, Source: "template"},
				{ID: "grounds", Title: "Grounds for Bail", Order: 30, SectionType: "body", Required: true, Source: "template"},
				{ID: "undertakings", Title: "Undertakings", Order: 40, SectionType: "body", Required: false, Source: "template"},
			},
		},
		Compliance: &ComplianceReport{
			MandatorySections:  []string{"undertakings"},
			MandatoryAnnexures: []string{"FIR Copy"},
		},
		Localization: &LocalizationRules{
			Language:       "en-IN",
			DateFormat:     "DD/MM/YYYY",
			NumberingStyle: "arabic",
			ExtraSections: []model.Section{
				{ID: "verification", Title: "Verification", Order: 800, SectionType: "verification", Required: true},
			},
		},
		Reliefs: &ReliefPack{Reliefs: []string{"Release the applicant on bail", "Any other relief the court deems fit"}},
		Citations: &CitationPack{Citations: []model.Citation{
			{Text: "Arnesh Kumar v. State of Bihar, (2014) 8 SCC 273", Confidence: 0.9},
		}},
		Research: &ResearchBundle{Items: []ResearchItem{{Title: "Bail jurisprudence overview"}}},
		Questions: []model.ClarificationQuestion{
			{Field: "arrest_date"},
		},
	}
}

func TestMerge_Idempotent(t *testing.T) {
	a := Merge(sampleInput())
	b := Merge(sampleInput())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("merge is not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestMerge_NeverDropsSections(t *testing.T) {
	res := Merge(sampleInput())
	// 3 template + 1 annexure + 1 localization extra + prayer + citations + research
	if len(res.Sections) != 8 {
		t.Fatalf("expected 8 sections, got %d: %+v", len(res.Sections), res.Sections)
	}
}

func TestMerge_ComplianceUpgradesAndWarns(t *testing.T) {
	res := Merge(sampleInput())
	var undertakings *model.Section
	for i := range res.Sections {
		if res.Sections[i].ID == "undertakings" {
			undertakings = &res.Sections[i]
		}
	}
	if undertakings == nil || !undertakings.Required {
		t.Fatalf("expected undertakings forced required")
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning for the upgrade")
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].SectionID != "undertakings" {
		t.Fatalf("expected one conflict for undertakings, got %+v", res.Conflicts)
	}
}

func TestMerge_AnnexurePlaceholderAppended(t *testing.T) {
	res := Merge(sampleInput())
	for _, s := range res.Sections {
		if s.ID == "annexure_fir_copy" {
			if s.Content != "{{ANNEXURE_FIR_COPY}}" {
				t.Fatalf("got content %q", s.Content)
			}
			return
		}
	}
	t.Fatalf("annexure section not appended")
}

func TestMerge_LocalizationStampsEverySection(t *testing.T) {
	res := Merge(sampleInput())
	for _, s := range res.Sections {
		if s.Source == "template" && s.Meta["date_format"] != "DD/MM/YYYY" {
			t.Fatalf("section %q missing localization meta: %+v", s.ID, s.Meta)
		}
	}
}

func TestMerge_StableOrderAscending(t *testing.T) {
	res := Merge(sampleInput())
	for i := 1; i < len(res.Sections); i++ {
		if res.Sections[i-1].Order > res.Sections[i].Order {
			t.Fatalf("sections out of order at %d: %+v", i, res.Sections)
		}
	}
	if res.Sections[0].ID != "court_header" {
		t.Fatalf("expected court_header first, got %q", res.Sections[0].ID)
	}
}

func TestMerge_HardBlocksFailTheGate(t *testing.T) {
	in := sampleInput()
	in.Compliance.HardBlocks = []string{"limitation period expired"}
	res := Merge(in)
	if res.Passed {
		t.Fatalf("expected hard block to fail the merge")
	}
	if len(res.HardBlocks) != 1 {
		t.Fatalf("got %v", res.HardBlocks)
	}
}

func TestMerge_EmptyInputsTrivial(t *testing.T) {
	res := Merge(Input{})
	if !res.Passed {
		t.Fatalf("empty merge should pass")
	}
	if len(res.Sections) != 0 {
		t.Fatalf("expected no sections, got %+v", res.Sections)
	}
}

func TestMerge_NoReliefsNoPrayerSection(t *testing.T) {
	in := sampleInput()
	in.Reliefs = &ReliefPack{}
	res := Merge(in)
	for _, s := range res.Sections {
		if s.ID == "prayer" {
			t.Fatalf("prayer section must not appear without reliefs")
		}
	}
}

func TestMerge_PlaceholderMapFromQuestions(t *testing.T) {
	res := Merge(sampleInput())
	if res.Placeholders["arrest_date"] != "{{ARREST_DATE}}" {
		t.Fatalf("got %v", res.Placeholders)
	}
}
