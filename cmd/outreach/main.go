package main

import (
	"context"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"outreach/internal/analyzer"
	"outreach/internal/config"
	"outreach/internal/followup"
	"outreach/internal/gate"
	"outreach/internal/generator"
	"outreach/internal/jobs"
	"outreach/internal/llm"
	"outreach/internal/logging"
	"outreach/internal/market"
	"outreach/internal/outcome"
	"outreach/internal/personalize"
	"outreach/internal/postprocess"
	"outreach/internal/rules"
	"outreach/internal/safeguard"
	"outreach/internal/spamguard"
	"outreach/internal/store/sqlite"
)

var (
	cfgPath string
	envPath string
)

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Personal first messages and follow-ups for private property sellers",
	Long: `outreach analyzes a classifieds listing, picks what a message should lead
with, drafts a short German message that passes the spam guard, and keeps
track of follow-ups and seller replies.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "./outreach.yaml", "config path")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "env file loaded before the config")
	rootCmd.AddCommand(
		initCmd, analyzeCmd, personalizeCmd, generateCmd, followupCmd, classifyCmd,
		contactCmd, replyCmd, removeCmd, dispatchCmd, pendingCmd, statsCmd,
	)
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the env file and the config. A missing config file
// falls back to defaults so one-off commands work without init.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	logging.Init(cfg.Logging.Level, cfg.Logging.Development)
	return cfg, nil
}

// app is everything a command may need, built once from the config.
type app struct {
	cfg       config.Config
	client    llm.Client
	analyzer  *analyzer.Analyzer
	personal  *personalize.Engine
	generator *generator.Generator
	tracker   *outcome.Tracker
	gate      *gate.Gate
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	tables, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	prices, err := market.Load(cfg.Market.Path)
	if err != nil {
		return nil, err
	}
	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	var scorer, classifier llm.Client
	if client != nil && cfg.LLM.QualityCheck {
		scorer = client
	}
	if client != nil && cfg.LLM.ClassifyReplies {
		classifier = client
	}

	seed := time.Now().UnixNano()
	a := analyzer.New(tables, prices)
	p := personalize.New(tables, a)
	gen := generator.New(a, p, spamguard.New(tables, cfg.Messaging, scorer), client,
		postprocess.New(cfg.Messaging.TypoProbability, rand.New(rand.NewSource(seed))),
		tables.PreamblePrefixes, cfg.Messaging)
	if client != nil && cfg.LLM.Safeguard {
		gen.UseSafeguard(safeguard.New(client))
	}
	return &app{
		cfg:       cfg,
		client:    client,
		analyzer:  a,
		personal:  p,
		generator: gen,
		tracker:   outcome.New(tables, classifier),
		gate:      gate.New(cfg.Gate, client),
	}, nil
}

// deps opens the store and restores the persisted conversations. Sends are
// not paced; the dispatch loop adds a pacer.
func (a *app) deps(ctx context.Context) (jobs.Deps, func(), error) {
	db, err := sqlite.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return jobs.Deps{}, nil, err
	}
	seed := time.Now().UnixNano()
	d := jobs.Deps{
		DB:        db,
		Engine:    followup.New(a.cfg.FollowUp, a.cfg.Location(), rand.New(rand.NewSource(seed))),
		Generator: a.generator,
		Tracker:   a.tracker,
		Gate:      a.gate,
		Sender:    jobs.LogSender{},
		Sending:   a.cfg.Sending,
	}
	if err := jobs.Restore(ctx, d); err != nil {
		_ = db.Close()
		return jobs.Deps{}, nil, err
	}
	return d, func() { _ = db.Close() }, nil
}

// readInput returns the file contents, or stdin for "-".
func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), errors.Wrap(err, "read stdin")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read listing %s", path)
	}
	return string(b), nil
}
