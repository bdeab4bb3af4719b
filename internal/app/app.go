package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lexfoundry/draftgate/internal/citation"
	"github.com/lexfoundry/draftgate/internal/clarify"
	"github.com/lexfoundry/draftgate/internal/classify"
	"github.com/lexfoundry/draftgate/internal/export"
	"github.com/lexfoundry/draftgate/internal/facts"
	"github.com/lexfoundry/draftgate/internal/llm"
	"github.com/lexfoundry/draftgate/internal/merge"
	"github.com/lexfoundry/draftgate/internal/model"
	"github.com/lexfoundry/draftgate/internal/normalize"
	"github.com/lexfoundry/draftgate/internal/promote"
	"github.com/lexfoundry/draftgate/internal/quality"
	"github.com/lexfoundry/draftgate/internal/route"
	"github.com/lexfoundry/draftgate/internal/store"
	"github.com/lexfoundry/draftgate/internal/template"
	"github.com/lexfoundry/draftgate/internal/trace"
)

// Gate names as they appear in gate results and the audit trail.
const (
	GateSanitize    = "input_sanitization"
	GateClassify    = "keyword_classification"
	GateRoute       = "route_resolution"
	GateFacts       = "fact_completeness"
	GateJurisdict   = "jurisdiction_check"
	GateQuality     = "draft_quality"
	GateCitations   = "citation_validation"
	GateTrace       = "fact_traceability"
	GateClarify     = "clarification"
	GateMerge       = "context_merge"
	GatePromotion   = "rule_promotion"
	GateExport      = "export"
)

// ErrHardBlocked is returned by Run when any gate raised a condition that
// must reach a human before drafting may continue. Per the exit code
// policy this maps to a distinct non-zero exit.
var ErrHardBlocked = fmt.Errorf("pipeline hard-blocked")

// App wires the gate pipeline together.
type App struct {
	cfg Config

	normalizer *normalize.Normalizer
	classifier *classify.Classifier
	validator  *facts.Validator
	aggregator *clarify.Aggregator
	checker    *quality.Checker
	semantic   *llm.SemanticClassifier
	store      *store.Store
}

// Outcome is everything one run produced, gate by gate.
type Outcome struct {
	SessionID string               `json:"sessionId"`
	Route     model.ResolvedRoute  `json:"route"`
	Results   []model.GateResult   `json:"results"`
	Clarify   clarify.Result       `json:"clarification"`
	Merge     merge.Result         `json:"merge"`
	Export    export.Result        `json:"export"`
	Promoted  []model.PromotionLogEntry `json:"promoted,omitempty"`

	HardBlocked bool `json:"hardBlocked"`

	// renderedText is the canonical text form, kept for the PDF artifact
	// even when the requested export format was something else.
	renderedText string
}

// New builds the pipeline. The embedded gate tables are parsed once here;
// a table that fails to parse is a build defect, not a runtime condition.
func New(ctx context.Context, cfg Config) (*App, error) {
	cls, err := classify.New()
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	val, err := facts.New()
	if err != nil {
		return nil, fmt.Errorf("init fact validator: %w", err)
	}
	agg, err := clarify.New()
	if err != nil {
		return nil, fmt.Errorf("init aggregator: %w", err)
	}
	chk, err := quality.New()
	if err != nil {
		return nil, fmt.Errorf("init quality checker: %w", err)
	}

	a := &App{
		cfg:        cfg,
		normalizer: &normalize.Normalizer{MaxWords: cfg.MaxWords, MaxAttachmentWords: cfg.MaxAttachmentWords},
		classifier: cls,
		validator:  val,
		aggregator: agg,
		checker:    chk,
		semantic:   &llm.SemanticClassifier{Fallback: cls},
	}

	if cfg.StoreDir != "" {
		a.store = &store.Store{Dir: cfg.StoreDir, StrictPerms: cfg.StrictPerms}
	}

	// The semantic classifier only gets a live client outside dry-run;
	// otherwise it stays on the damped keyword fallback.
	if !cfg.DryRun && cfg.LLMModel != "" {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		a.semantic.Client = &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}
		a.semantic.Model = cfg.LLMModel
	}

	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// Run executes every gate against the session and returns the combined
// outcome. The returned error is ErrHardBlocked when a gate demanded human
// attention; infrastructure failures come back as ordinary errors.
func (a *App) Run(ctx context.Context, s Session) (Outcome, error) {
	out := Outcome{SessionID: strings.TrimSpace(s.ID)}
	if out.SessionID == "" {
		out.SessionID = uuid.NewString()
	}
	log.Info().Str("session", out.SessionID).Msg("pipeline start")

	factSet := model.NewFactSet(s.Facts)
	if a.store != nil {
		if err := a.store.SaveFacts(out.SessionID, s.Facts); err != nil {
			return out, fmt.Errorf("persist facts: %w", err)
		}
	}

	// 1) Sanitize the query and every attachment.
	san := a.normalizer.Sanitize(s.Query, s.Attachments)
	a.record(&out, model.GateResult{
		Gate:      GateSanitize,
		Passed:    san.Passed,
		HardBlock: san.Manipulation,
		Reasons:   san.Events,
		Payload:   san,
	})
	if san.Manipulation {
		log.Error().Str("session", out.SessionID).Msg("manipulation pattern in input; stopping")
		out.HardBlocked = true
		return out, ErrHardBlocked
	}

	// 2) Keyword classification on the sanitized text.
	ruleRes := a.classifier.Classify(san.SanitizedText, s.Facts)
	a.record(&out, model.GateResult{
		Gate:    GateClassify,
		Passed:  true,
		Payload: ruleRes,
	})

	// 3) Semantic classification, then route resolution over both.
	semCls := a.semantic.Classify(ctx, san.SanitizedText, s.Facts)
	routeRes := route.Resolve(ruleRes.Classification, semCls)
	out.Route = routeRes.Route
	a.record(&out, model.GateResult{
		Gate:         GateRoute,
		Passed:       routeRes.Passed,
		NeedsClarify: routeRes.Route.NeedsClarification,
		Conflicts:    routeRes.Route.Conflicts,
		Payload:      routeRes,
	})
	log.Info().
		Str("docType", routeRes.Route.DocType).
		Str("courtType", routeRes.Route.CourtType).
		Float64("confidence", routeRes.Route.Confidence).
		Msg("route resolved")

	// 4) Fact completeness and jurisdiction checks.
	comp := a.validator.CheckCompleteness(routeRes.Route.DocType, factSet)
	a.record(&out, model.GateResult{
		Gate:          GateFacts,
		Passed:        comp.Passed,
		NeedsClarify:  !comp.Passed,
		MissingFields: comp.MissingRequired,
		Payload:       comp,
	})
	jur := a.validator.CheckJurisdiction(routeRes.Route.DocType, routeRes.Route.CourtType, factSet)
	a.record(&out, model.GateResult{
		Gate:          GateJurisdict,
		Passed:        jur.Passed,
		NeedsClarify:  !jur.Passed,
		MissingFields: jur.Missing,
		Payload:       jur,
	})

	// 5) Draft-dependent gates run only when a draft arrived.
	if s.Draft != "" {
		q := a.checker.Check(routeRes.Route.DocType, s.Draft)
		a.record(&out, model.GateResult{
			Gate:    GateQuality,
			Passed:  q.Passed,
			Reasons: q.Issues,
			Payload: q,
		})
		tr := trace.Check(s.Draft, s.Facts)
		reasons := make([]string, 0, len(tr.Untraced))
		for _, u := range tr.Untraced {
			reasons = append(reasons, fmt.Sprintf("%s entity %q has no supporting fact", u.Class, u.Value))
		}
		a.record(&out, model.GateResult{
			Gate:    GateTrace,
			Passed:  tr.Passed,
			Reasons: reasons,
			Payload: tr,
		})
	}

	// 6) Citation validation against the persisted trusted set.
	verified := map[string]struct{}{}
	if a.store != nil {
		v, err := a.store.VerifiedHashes()
		if err != nil {
			return out, fmt.Errorf("load verified hashes: %w", err)
		}
		verified = v
	}
	citRes := citation.Validate(s.Citations, verified)
	a.record(&out, model.GateResult{
		Gate:    GateCitations,
		Passed:  citRes.Passed,
		Payload: citRes,
	})

	// 7) Aggregate everything a human still has to answer.
	out.Clarify = a.aggregator.Aggregate(clarify.Input{
		Facts:       factSet,
		Route:       routeRes.Route,
		GateResults: out.Results,
	})
	a.record(&out, model.GateResult{
		Gate:         GateClarify,
		Passed:       out.Clarify.Passed,
		NeedsClarify: out.Clarify.NeedsClarification,
		Payload:      out.Clarify,
	})
	for _, q := range out.Clarify.Questions {
		log.Debug().Str("field", q.Field).Str("origin", q.Origin).Msg("clarification needed")
	}

	// 8) Merge the document context.
	tmpl := template.Expand(routeRes.Route.DocType)
	var citPack *merge.CitationPack
	if len(citRes.Verified) > 0 {
		citPack = &merge.CitationPack{Citations: citRes.Verified}
	}
	out.Merge = merge.Merge(merge.Input{
		Template:     &tmpl,
		Compliance:   s.Compliance,
		Localization: s.Localization,
		Reliefs:      s.Reliefs,
		Research:     s.Research,
		Citations:    citPack,
		Questions:    out.Clarify.Questions,
	})
	a.record(&out, model.GateResult{
		Gate:      GateMerge,
		Passed:    out.Merge.Passed,
		HardBlock: !out.Merge.Passed,
		Reasons:   out.Merge.HardBlocks,
		Payload:   out.Merge,
	})

	// 9) Record this session's mistakes and evaluate promotions.
	if a.store != nil {
		if err := a.runPromotion(&out, s, routeRes.Route); err != nil {
			return out, err
		}
	}

	blocked := len(out.Clarify.HardBlocks) > 0 || !out.Merge.Passed
	if blocked {
		out.HardBlocked = true
		log.Error().Int("hardBlocks", len(out.Clarify.HardBlocks)+len(out.Merge.HardBlocks)).Msg("pipeline hard-blocked")
		return out, ErrHardBlocked
	}

	// 10) Export.
	var annexures []string
	if s.Compliance != nil {
		annexures = s.Compliance.MandatoryAnnexures
	}
	var reliefs []string
	if s.Reliefs != nil {
		reliefs = s.Reliefs.Reliefs
	}
	format := strings.TrimSpace(s.Export.Format)
	if format == "" {
		format = export.FormatText
	}
	f := &export.Formatter{}
	exportIn := export.Input{
		Title:       exportTitle(s, routeRes.Route),
		Format:      format,
		Sections:    out.Merge.Sections,
		Reliefs:     reliefs,
		Annexures:   annexures,
		Citations:   citRes.Verified,
		HasResearch: s.Research != nil && len(s.Research.Items) > 0,
	}
	out.Export = f.Format(exportIn)
	if out.Export.Format == export.FormatText {
		out.renderedText = out.Export.Content
	} else {
		alt := exportIn
		alt.Format = export.FormatText
		out.renderedText = f.Format(alt).Content
	}
	a.record(&out, model.GateResult{
		Gate:    GateExport,
		Passed:  out.Export.Passed,
		Reasons: out.Export.Metadata.Errors,
		Payload: out.Export.Metadata,
	})
	if !out.Export.Passed {
		return out, fmt.Errorf("export: %s", strings.Join(out.Export.Metadata.Errors, "; "))
	}

	log.Info().
		Str("session", out.SessionID).
		Int("sections", out.Export.Metadata.SectionCount).
		Int("words", out.Export.Metadata.WordCount).
		Float64("quality", out.Export.Metadata.QualityScore).
		Msg("export ready")
	return out, nil
}

// runPromotion records the session's mistakes as staging observations,
// then evaluates every staged candidate for this route and applies the
// eligible ones.
func (a *App) runPromotion(out *Outcome, s Session, r model.ResolvedRoute) error {
	for _, m := range s.Mistakes {
		if m.DocumentType == "" {
			m.DocumentType = r.DocType
		}
		if _, err := a.store.ObserveMistake(m); err != nil {
			return fmt.Errorf("record mistake: %w", err)
		}
	}

	jurisdiction := ""
	if f, ok := model.NewFactSet(s.Facts)["jurisdiction"]; ok {
		jurisdiction = f.Value
	}
	staged, err := a.store.StagingRules(r.DocType, jurisdiction)
	if err != nil {
		return fmt.Errorf("load staging rules: %w", err)
	}
	main, err := a.store.MainRules(r.DocType, jurisdiction)
	if err != nil {
		return fmt.Errorf("load main rules: %w", err)
	}

	eval := promote.Evaluate(staged, main)
	entries, err := a.store.ApplyPromotions(eval.Eligible)
	if err != nil {
		return fmt.Errorf("apply promotions: %w", err)
	}
	out.Promoted = entries
	a.record(out, model.GateResult{
		Gate:    GatePromotion,
		Passed:  true,
		Payload: eval,
	})
	if len(entries) > 0 {
		log.Info().Int("promoted", len(entries)).Str("docType", r.DocType).Msg("staging rules promoted")
	}
	return nil
}

// record appends a gate result to the outcome and the audit trail. Audit
// write failures are logged, not fatal; the run result itself still
// carries every gate verdict.
func (a *App) record(out *Outcome, gr model.GateResult) {
	out.Results = append(out.Results, gr)
	log.Debug().Str("gate", gr.Gate).Bool("passed", gr.Passed).Msg("gate evaluated")
	if a.store != nil {
		if err := a.store.AppendAudit(out.SessionID, gr); err != nil {
			log.Warn().Err(err).Str("gate", gr.Gate).Msg("audit append failed")
		}
	}
}

func exportTitle(s Session, r model.ResolvedRoute) string {
	if t := strings.TrimSpace(s.Export.Title); t != "" {
		return t
	}
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	if r.DocType != "" {
		return strings.ReplaceAll(r.DocType, "_", " ")
	}
	return "Draft Document"
}

// WriteOutputs persists the export to cfg.OutputPath and, when configured,
// a PDF rendering of the text form next to it.
func (a *App) WriteOutputs(out Outcome) error {
	if a.cfg.DryRun || out.HardBlocked {
		// No document to hand over; the questions and block reasons are
		// the product of the run.
		return os.WriteFile(a.cfg.OutputPath, []byte(dryRunSummary(out)), 0o644)
	}
	if err := os.WriteFile(a.cfg.OutputPath, []byte(out.Export.Content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if a.cfg.OutputPDF != "" && out.renderedText != "" {
		if err := writeSimplePDF(out.renderedText, a.cfg.OutputPDF); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}

// dryRunSummary renders the route and the outstanding questions without
// producing a document. Hard-blocked runs get the same summary.
func dryRunSummary(out Outcome) string {
	header := "draftgate (dry run)"
	if out.HardBlocked {
		header = "draftgate (blocked)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nSession: %s\nDocument type: %s\nCourt: %s\nConfidence: %.2f\nAgents: %s\n",
		header, out.SessionID, out.Route.DocType, out.Route.CourtType, out.Route.Confidence, strings.Join(out.Route.AgentsRequired, ", "))
	if len(out.Clarify.Questions) > 0 {
		b.WriteString("\nOutstanding questions:\n")
		for i, q := range out.Clarify.Questions {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, q.Field, q.Question)
		}
	}
	for _, hb := range out.Clarify.HardBlocks {
		fmt.Fprintf(&b, "\nHARD BLOCK (%s): %s\n", hb.Gate, hb.Reason)
	}
	return b.String()
}
