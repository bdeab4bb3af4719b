package classify

import (
	"testing"

	"github.com/lexfoundry/draftgate/internal/model"
)

func mustNew(t *testing.T) *Classifier {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClassify_BailQuery(t *testing.T) {
	c := mustNew(t)
	res := c.Classify("I need a bail application for my brother, FIR registered at the police station, matter before the sessions court", nil)
	if res.Classification.LegalDomain != "criminal" {
		t.Fatalf("expected criminal domain, got %q", res.Classification.LegalDomain)
	}
	if res.Classification.DocType != "bail_application" {
		t.Fatalf("expected bail_application, got %q", res.Classification.DocType)
	}
	if res.Classification.CourtType != "district_court" {
		t.Fatalf("expected district_court, got %q", res.Classification.CourtType)
	}
	if res.Classification.Confidence <= 0 {
		t.Fatalf("expected positive confidence")
	}
}

func TestClassify_ConfidenceCappedAt090(t *testing.T) {
	c := mustNew(t)
	// Six criminal keywords: confidence would be 2.0 uncapped.
	res := c.Classify("bail for the accused after arrest, fir filed, charge sheet pending, custody hearing", nil)
	if res.Domain.Confidence > MaxConfidence {
		t.Fatalf("domain confidence %v exceeds cap", res.Domain.Confidence)
	}
}

func TestClassify_SingleTokenWordBoundary(t *testing.T) {
	c := mustNew(t)
	// "cat" is a tribunal keyword; "catalogue" must not trigger it.
	res := c.Classify("please review the catalogue of documents", nil)
	if res.Forum.Category == "tribunal" {
		t.Fatalf("substring matched a single-token keyword inside a longer word")
	}
}

func TestClassify_FactValuesContribute(t *testing.T) {
	c := mustNew(t)
	res := c.Classify("draft the document", []model.Fact{
		{Key: "instrument", Value: "cheque dishonour under section 138"},
	})
	if res.Classification.DocType != "cheque_bounce_complaint" {
		t.Fatalf("expected fact values to drive doc type, got %q", res.Classification.DocType)
	}
}

func TestClassify_NoMatchesZeroConfidence(t *testing.T) {
	c := mustNew(t)
	res := c.Classify("hello there", nil)
	if res.Classification.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", res.Classification.Confidence)
	}
	if res.Classification.DocType != "" {
		t.Fatalf("expected empty doc type, got %q", res.Classification.DocType)
	}
}

func TestClassify_PerDimensionConfidenceRounding(t *testing.T) {
	c := mustNew(t)
	// Exactly one divorce keyword: 1/3 rounded to 0.33.
	res := c.Classify("dissolution of marriage proceedings", nil)
	if res.DocType.Confidence != 0.33 {
		t.Fatalf("expected 0.33, got %v", res.DocType.Confidence)
	}
}
