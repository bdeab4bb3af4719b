package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lexfoundry/draftgate/internal/merge"
	"github.com/lexfoundry/draftgate/internal/model"
	"github.com/lexfoundry/draftgate/internal/normalize"
)

// Session is the JSON input document for one drafting run: the user query,
// the extracted facts, the agent outputs produced so far, and the export
// request. Every field except Query is optional; gates that receive no
// input for their concern pass trivially.
type Session struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`

	Query       string                 `json:"query"`
	Attachments []normalize.Attachment `json:"attachments,omitempty"`
	Facts       []model.Fact           `json:"facts,omitempty"`

	// Draft is the generated document text, when a drafting agent has
	// already produced one. Quality and traceability gates run against it.
	Draft string `json:"draft,omitempty"`

	Compliance   *merge.ComplianceReport  `json:"compliance,omitempty"`
	Localization *merge.LocalizationRules `json:"localization,omitempty"`
	Reliefs      *merge.ReliefPack        `json:"reliefs,omitempty"`
	Research     *merge.ResearchBundle    `json:"research,omitempty"`
	Citations    []model.Citation         `json:"citations,omitempty"`

	// Mistakes are reviewer-flagged drafting errors from this session.
	// Each is recorded as a staging-rule observation before promotion
	// candidates are evaluated.
	Mistakes []model.StagingRule `json:"mistakes,omitempty"`

	Export ExportRequest `json:"export,omitempty"`
}

// ExportRequest names the output format. Format defaults to "text".
type ExportRequest struct {
	Format string `json:"format,omitempty"`
	Title  string `json:"title,omitempty"`
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (Session, error) {
	var s Session
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse session: %w", err)
	}
	if strings.TrimSpace(s.Query) == "" {
		return s, errors.New("session: query is required")
	}
	return s, nil
}
