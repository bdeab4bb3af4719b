package llm

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lexfoundry/draftgate/internal/classify"
	"github.com/lexfoundry/draftgate/internal/model"
)

// SemanticClassifier produces the second of the two classifications the
// route resolver reconciles. It asks a chat model for a strict-JSON
// classification; when no model is configured or the call fails it falls
// back to the keyword classifier so the pipeline always has two opinions,
// with the fallback's confidence damped below the keyword ceiling.
type SemanticClassifier struct {
	Client Client
	Model  string
	// SystemPrompt, when non-empty, overrides the default system message.
	SystemPrompt string
	// Fallback is used when the model path is unavailable; nil disables it.
	Fallback *classify.Classifier
}

// fallbackDamping keeps the deterministic fallback from ever outvoting the
// real rule-based classification at the resolver's thresholds.
const fallbackDamping = 0.5

// Classify returns the semantic classification for the sanitized query.
func (s *SemanticClassifier) Classify(ctx context.Context, query string, facts []model.Fact) model.Classification {
	if s.Client != nil && strings.TrimSpace(s.Model) != "" {
		sys := defaultSystemMessage
		if strings.TrimSpace(s.SystemPrompt) != "" {
			sys = s.SystemPrompt
		}
		req := openai.ChatCompletionRequest{
			Model: s.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: sys},
				{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(query, facts)},
			},
			Temperature: 0.0,
			N:           1,
		}
		resp, err := s.Client.CreateChatCompletion(ctx, req)
		if err == nil && len(resp.Choices) > 0 {
			var c model.Classification
			raw := strings.TrimSpace(resp.Choices[0].Message.Content)
			if err := json.Unmarshal([]byte(raw), &c); err == nil && c.DocType != "" {
				return normalize(c)
			}
		}
		// fall through on any model or parse failure
	}
	if s.Fallback != nil {
		c := s.Fallback.Classify(query, facts).Classification
		c.Confidence *= fallbackDamping
		return c
	}
	return model.Classification{}
}

const defaultSystemMessage = "You are a legal drafting request classifier for Indian practice. " +
	"Respond with strict JSON only: {\"docType\":string,\"courtType\":string,\"legalDomain\":string," +
	"\"proceedingType\":string,\"draftGoal\":string,\"language\":string,\"draftStyle\":string," +
	"\"confidence\":number}. Use snake_case category names. Leave a field empty when the request " +
	"does not determine it; never guess. Confidence is your overall certainty in [0,1]."

func buildUserMessage(query string, facts []model.Fact) string {
	var sb strings.Builder
	sb.WriteString("Classify the following drafting request.\n\nRequest:\n")
	sb.WriteString(query)
	if len(facts) > 0 {
		sb.WriteString("\n\nKnown facts:\n")
		for _, f := range facts {
			sb.WriteString("- " + f.Key + ": " + f.Value + "\n")
		}
	}
	return sb.String()
}

func normalize(c model.Classification) model.Classification {
	c.DocType = snake(c.DocType)
	c.CourtType = snake(c.CourtType)
	c.LegalDomain = snake(c.LegalDomain)
	c.ProceedingType = snake(c.ProceedingType)
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c
}

func snake(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}
