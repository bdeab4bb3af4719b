package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexfoundry/draftgate/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath   string
		sessionPath  string
		outputPath   string
		outputPDF    string
		outcomePath  string
		llmBaseURL   string
		llmModel     string
		llmKey       string
		maxWords     int
		maxAttach    int
		storeDir     string
		strictPerms  bool
		dryRun       bool
		verbose      bool
	)

	flag.StringVar(&configPath, "config", "", "Path to optional YAML/JSON config file")
	flag.StringVar(&sessionPath, "session", "session.json", "Path to the session JSON input")
	flag.StringVar(&outputPath, "output", "draft_export.txt", "Path to write the export content")
	flag.StringVar(&outputPDF, "output.pdf", "", "Optional path for a PDF rendering of the text export")
	flag.StringVar(&outcomePath, "outcome", "", "Optional path to write the full gate outcome as JSON")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for semantic classification (empty uses keyword fallback)")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&maxWords, "max.words", 0, "Word cap for the query (0 uses the default)")
	flag.IntVar(&maxAttach, "max.attachmentWords", 0, "Word cap per attachment (0 uses the default)")
	flag.StringVar(&storeDir, "store.dir", ".draftgate-store", "Directory for facts, audit trail and rule stores (empty disables persistence)")
	flag.BoolVar(&strictPerms, "store.strictPerms", false, "Restrict store permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&dryRun, "dry-run", false, "Resolve the route and questions without the model or an export")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		SessionPath:        sessionPath,
		OutputPath:         outputPath,
		OutputPDF:          outputPDF,
		LLMBaseURL:         llmBaseURL,
		LLMModel:           llmModel,
		LLMAPIKey:          llmKey,
		MaxWords:           maxWords,
		MaxAttachmentWords: maxAttach,
		StoreDir:           storeDir,
		StrictPerms:        strictPerms,
		DryRun:             dryRun,
		Verbose:            verbose,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("config", configPath).Msg("load config failed")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := run(cfg, outcomePath); err != nil {
		// Exit code policy: 2 when a gate hard-blocked the run so automation
		// can route it to a human, 1 for everything else.
		if errors.Is(err, app.ErrHardBlocked) {
			log.Error().Err(err).Msg("run hard-blocked")
			os.Exit(2)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config, outcomePath string) error {
	ctx := context.Background()

	s, err := app.LoadSession(cfg.SessionPath)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	out, runErr := a.Run(ctx, s)

	// The outcome and outputs are written even for hard-blocked runs; the
	// questions and block reasons are the useful product of those.
	if outcomePath != "" {
		b, merr := json.MarshalIndent(out, "", "  ")
		if merr == nil {
			merr = os.WriteFile(outcomePath, b, 0o644)
		}
		if merr != nil {
			log.Warn().Err(merr).Str("outcome", outcomePath).Msg("write outcome failed")
		}
	}
	if runErr != nil {
		if errors.Is(runErr, app.ErrHardBlocked) {
			if werr := a.WriteOutputs(out); werr != nil {
				log.Warn().Err(werr).Msg("write outputs failed")
			}
		}
		return runErr
	}

	if err := a.WriteOutputs(out); err != nil {
		return err
	}
	log.Info().Str("out", cfg.OutputPath).Msg("wrote export")
	return nil
}
