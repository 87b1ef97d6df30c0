package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcauduro0/macro-signal-pipeline/internal/agents"
	"github.com/mcauduro0/macro-signal-pipeline/internal/config"
	"github.com/mcauduro0/macro-signal-pipeline/internal/journal"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence"
	"github.com/mcauduro0/macro-signal-pipeline/internal/persistence/postgres"
	"github.com/mcauduro0/macro-signal-pipeline/internal/pit"
	"github.com/mcauduro0/macro-signal-pipeline/internal/registry"
	"github.com/mcauduro0/macro-signal-pipeline/internal/tradeworkflow"
)

// defaultInflationTarget is the midpoint of Brazil's inflation-targeting
// band; operators running against a different regime override it via
// --inflation-target.
const defaultInflationTarget = 0.03

// runtime bundles everything a subcommand needs once the database and
// configuration are wired up.
type runtime struct {
	cfg      *config.PipelineConfig
	repo     persistence.Repository
	health   persistence.HealthChecker
	loader   *pit.Loader
	registry *registry.Registry
	journal  *journal.Journal
	trades   *tradeworkflow.Service
}

func buildRuntime(inflationTarget float64) (*runtime, func(), error) {
	cfg, err := config.LoadPipelineConfig(flagConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if violations := config.ValidatePipelineConfig(cfg); len(violations) > 0 {
		return nil, nil, fmt.Errorf("invalid pipeline config: %v", violations)
	}
	if flagLogLevel == "" {
		if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			log.Logger = log.Logger.Level(parsed)
		}
	}

	dsn := flagDBDSN
	if dsn == "" {
		dsn = cfg.DatabaseDSN
	}
	if dsn == "" {
		return nil, nil, fmt.Errorf("no database DSN: set --db-dsn or MACROSIGNAL_DATABASE_DSN")
	}

	db, err := postgres.Open(dsn, 20, 5)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("error closing database connection")
		}
	}

	timeout := 10 * time.Second
	repo := postgres.NewRepository(db, timeout)
	health := postgres.NewHealthChecker(db)

	loc, err := time.LoadLocation(flagTimezone)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load timezone %q: %w", flagTimezone, err)
	}
	loader := pit.New(repo, loc)

	reg := registry.New(log.Logger, time.Duration(cfg.AgentWallClockBudgetSeconds)*time.Second)
	toRegister := []agents.Agent{
		agents.NewInflationAgent(loader, repo.AgentReports, log.Logger),
		agents.NewMonetaryAgent(loader, repo.AgentReports, log.Logger, inflationTarget),
		agents.NewFiscalAgent(loader, repo.AgentReports, log.Logger),
		agents.NewFXAgent(loader, repo.AgentReports, log.Logger),
		agents.NewCrossAssetAgent(loader, repo.AgentReports, log.Logger),
	}
	for _, a := range toRegister {
		if err := reg.Register(a); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("register agent %s: %w", a.AgentID(), err)
		}
	}

	j := journal.New(repo.Journal)

	workflowCfg := tradeworkflow.Config{
		ConvictionMin:       cfg.ConvictionMin,
		FlipThreshold:       cfg.FlipThreshold,
		MaxProposalsPerDay:  cfg.MaxProposalsPerDay,
		StaleProposalMaxAge: time.Duration(cfg.ConvictionExpiryBusinessDays) * 24 * time.Hour,
	}
	trades := tradeworkflow.New(repo.TradeProposals, j, workflowCfg, log.Logger)

	rt := &runtime{cfg: cfg, repo: repo, health: health, loader: loader, registry: reg, journal: j, trades: trades}
	return rt, cleanup, nil
}
