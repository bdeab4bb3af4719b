package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lexfoundry/draftgate/internal/classify"
)

type stubClient struct {
	content string
	err     error
}

func (s *stubClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.content}}},
	}, nil
}

func TestClassify_ParsesStrictJSON(t *testing.T) {
	s := &SemanticClassifier{
		Client: &stubClient{content: `{"docType":"Bail Application","courtType":"district_court","legalDomain":"criminal","proceedingType":"bail","confidence":0.92}`},
		Model:  "test-model",
	}
	c := s.Classify(context.Background(), "bail for my brother", nil)
	if c.DocType != "bail_application" {
		t.Fatalf("expected snake_cased docType, got %q", c.DocType)
	}
	if c.Confidence != 0.92 {
		t.Fatalf("got confidence %v", c.Confidence)
	}
}

func TestClassify_FallsBackOnError(t *testing.T) {
	kw, err := classify.New()
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	s := &SemanticClassifier{
		Client:   &stubClient{err: errors.New("connection refused")},
		Model:    "test-model",
		Fallback: kw,
	}
	c := s.Classify(context.Background(), "anticipatory bail application before the sessions court", nil)
	if c.DocType != "bail_application" {
		t.Fatalf("expected fallback classification, got %q", c.DocType)
	}
	if c.Confidence >= classify.MaxConfidence {
		t.Fatalf("fallback confidence must be damped, got %v", c.Confidence)
	}
}

func TestClassify_NoClientNoFallbackIsEmpty(t *testing.T) {
	s := &SemanticClassifier{}
	c := s.Classify(context.Background(), "anything", nil)
	if c.DocType != "" || c.Confidence != 0 {
		t.Fatalf("expected zero classification, got %+v", c)
	}
}

func TestClassify_GarbageJSONFallsBack(t *testing.T) {
	kw, err := classify.New()
	if err != nil {
		t.Fatalf("classify.New: %v", err)
	}
	s := &SemanticClassifier{
		Client:   &stubClient{content: "Sure! Here is the classification you asked for."},
		Model:    "test-model",
		Fallback: kw,
	}
	c := s.Classify(context.Background(), "divorce petition by mutual consent", nil)
	if c.DocType != "divorce_petition" {
		t.Fatalf("expected fallback, got %q", c.DocType)
	}
}
