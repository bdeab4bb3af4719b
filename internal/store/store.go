// Package store is the local persistence collaborator: session facts,
// staging/main rule sets, the verified citation hash set, and an
// append-only audit log of gate results, all as JSON files under one
// directory. The staging-to-main promotion sequence is applied atomically
// here, since partial application would corrupt the rule lifecycle.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexfoundry/draftgate/internal/model"
	"github.com/lexfoundry/draftgate/internal/promote"
)

const (
	factsDir          = "facts"
	auditDir          = "audit"
	stagingRulesFile  = "staging_rules.json"
	mainRulesFile     = "main_rules.json"
	verifiedHashFile  = "verified_hashes.json"
	promotionLogFile  = "promotion_log.json"
)

// Store reads and writes pipeline state under Dir. StrictPerms enforces
// 0700 directories and 0600 files for at-rest protection.
type Store struct {
	Dir         string
	StrictPerms bool

	mu sync.Mutex
}

func (s *Store) ensureDir(sub string) (string, error) {
	if s == nil || s.Dir == "" {
		return "", errors.New("store dir not configured")
	}
	perm := os.FileMode(0o755)
	if s.StrictPerms {
		perm = 0o700
	}
	dir := filepath.Join(s.Dir, sub)
	if err := os.MkdirAll(dir, perm); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Store) filePerm() os.FileMode {
	if s.StrictPerms {
		return 0o600
	}
	return 0o644
}

// writeJSON writes via a temporary file and rename so a crash never leaves
// a half-written rule set behind.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, s.filePerm()); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// SaveFacts persists the authoritative fact list for a session.
func (s *Store) SaveFacts(sessionID string, facts []model.Fact) error {
	dir, err := s.ensureDir(factsDir)
	if err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(dir, sessionID+".json"), facts)
}

// LoadFacts returns the fact list for a session, empty when none exists.
func (s *Store) LoadFacts(sessionID string) ([]model.Fact, error) {
	dir, err := s.ensureDir(factsDir)
	if err != nil {
		return nil, err
	}
	var facts []model.Fact
	if err := readJSON(filepath.Join(dir, sessionID+".json"), &facts); err != nil {
		return nil, err
	}
	return facts, nil
}

// AppendAudit durably records one gate result for the session.
func (s *Store) AppendAudit(sessionID string, gr model.GateResult) error {
	dir, err := s.ensureDir(auditDir)
	if err != nil {
		return err
	}
	record := struct {
		ID        string           `json:"id"`
		Timestamp string           `json:"timestamp"`
		Result    model.GateResult `json:"result"`
	}{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Result:    gr,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, sessionID+".jsonl"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.filePerm())
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// VerifiedHashes loads the trusted citation hash set.
func (s *Store) VerifiedHashes() (map[string]struct{}, error) {
	if _, err := s.ensureDir(""); err != nil {
		return nil, err
	}
	var hashes []string
	if err := readJSON(filepath.Join(s.Dir, verifiedHashFile), &hashes); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[strings.TrimSpace(h)] = struct{}{}
	}
	return set, nil
}

// SaveVerifiedHashes replaces the trusted citation hash set.
func (s *Store) SaveVerifiedHashes(hashes []string) error {
	if _, err := s.ensureDir(""); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.Dir, verifiedHashFile), hashes)
}

// StagingRules returns staging rules filtered by document type and,
// when non-empty, jurisdiction.
func (s *Store) StagingRules(docType, jurisdiction string) ([]model.StagingRule, error) {
	all, err := s.allStagingRules()
	if err != nil {
		return nil, err
	}
	var out []model.StagingRule
	for _, r := range all {
		if !strings.EqualFold(r.DocumentType, docType) {
			continue
		}
		if jurisdiction != "" && r.Jurisdiction != "" && !strings.EqualFold(r.Jurisdiction, jurisdiction) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// MainRules returns main rules filtered the same way as StagingRules.
func (s *Store) MainRules(docType, jurisdiction string) ([]model.MainRule, error) {
	all, err := s.allMainRules()
	if err != nil {
		return nil, err
	}
	var out []model.MainRule
	for _, r := range all {
		if !strings.EqualFold(r.DocumentType, docType) {
			continue
		}
		if jurisdiction != "" && r.Jurisdiction != "" && !strings.EqualFold(r.Jurisdiction, jurisdiction) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) allStagingRules() ([]model.StagingRule, error) {
	if _, err := s.ensureDir(""); err != nil {
		return nil, err
	}
	var rules []model.StagingRule
	err := readJSON(filepath.Join(s.Dir, stagingRulesFile), &rules)
	return rules, err
}

func (s *Store) allMainRules() ([]model.MainRule, error) {
	if _, err := s.ensureDir(""); err != nil {
		return nil, err
	}
	var rules []model.MainRule
	err := readJSON(filepath.Join(s.Dir, mainRulesFile), &rules)
	return rules, err
}

// ObserveMistake records one observation of a recurring mistake pattern:
// the first observation creates a staged rule, repeats increment its
// occurrence count. Identity is type+documentType+content.
func (s *Store) ObserveMistake(rule model.StagingRule) (model.StagingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules, err := s.allStagingRules()
	if err != nil {
		return model.StagingRule{}, err
	}
	for i := range rules {
		if rules[i].Type == rule.Type &&
			strings.EqualFold(rules[i].DocumentType, rule.DocumentType) &&
			rules[i].Content == rule.Content {
			rules[i].OccurrenceCount++
			if err := s.writeJSON(filepath.Join(s.Dir, stagingRulesFile), rules); err != nil {
				return model.StagingRule{}, err
			}
			return rules[i], nil
		}
	}
	rule.ID = uuid.NewString()
	rule.OccurrenceCount = 1
	rule.Status = model.StatusStaged
	rules = append(rules, rule)
	if err := s.writeJSON(filepath.Join(s.Dir, stagingRulesFile), rules); err != nil {
		return model.StagingRule{}, err
	}
	return rule, nil
}

// ApplyPromotions graduates every eligible candidate in one atomic unit:
// create the main rule, mark the staging rule promoted, and log the event.
// A rule already promoted is skipped, so the transition happens exactly
// once no matter how often the evaluation is replayed.
func (s *Store) ApplyPromotions(evals []promote.Evaluation) ([]model.PromotionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staging, err := s.allStagingRules()
	if err != nil {
		return nil, err
	}
	main, err := s.allMainRules()
	if err != nil {
		return nil, err
	}
	var log []model.PromotionLogEntry
	if err := readJSON(filepath.Join(s.Dir, promotionLogFile), &log); err != nil {
		return nil, err
	}

	var applied []model.PromotionLogEntry
	for _, ev := range evals {
		if !ev.Eligible {
			continue
		}
		idx := -1
		for i := range staging {
			if staging[i].ID == ev.Rule.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("staging rule %s not found", ev.Rule.ID)
		}
		if staging[idx].Status == model.StatusPromoted {
			continue
		}

		mr := model.MainRule{
			ID:           uuid.NewString(),
			Type:         staging[idx].Type,
			DocumentType: staging[idx].DocumentType,
			Content:      staging[idx].Content,
			Severity:     staging[idx].Severity,
			Jurisdiction: staging[idx].Jurisdiction,
			CourtType:    staging[idx].CourtType,
			SectionID:    staging[idx].SectionID,
			RuleCategory: staging[idx].RuleCategory,
			Action:       staging[idx].Action,
			PromotedFrom: staging[idx].ID,
		}
		main = append(main, mr)
		staging[idx].Status = model.StatusPromoted
		entry := model.PromotionLogEntry{
			ID:            uuid.NewString(),
			StagingRuleID: staging[idx].ID,
			MainRuleID:    mr.ID,
			DocumentType:  mr.DocumentType,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		}
		log = append(log, entry)
		applied = append(applied, entry)
	}

	if len(applied) == 0 {
		return nil, nil
	}
	if err := s.writeJSON(filepath.Join(s.Dir, mainRulesFile), main); err != nil {
		return nil, err
	}
	if err := s.writeJSON(filepath.Join(s.Dir, stagingRulesFile), staging); err != nil {
		return nil, err
	}
	if err := s.writeJSON(filepath.Join(s.Dir, promotionLogFile), log); err != nil {
		return nil, err
	}
	return applied, nil
}

// SeedStagingRules replaces the staging rule set; used by tooling and tests.
func (s *Store) SeedStagingRules(rules []model.StagingRule) error {
	if _, err := s.ensureDir(""); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.Dir, stagingRulesFile), rules)
}

// SeedMainRules replaces the main rule set; used by tooling and tests.
func (s *Store) SeedMainRules(rules []model.MainRule) error {
	if _, err := s.ensureDir(""); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.Dir, mainRulesFile), rules)
}
