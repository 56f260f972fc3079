// Package cmd implements the bb subcommands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/ledgerline/budgetbook/insight"
	"github.com/ledgerline/budgetbook/session"
	"github.com/ledgerline/budgetbook/store"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "ledger")
	c.Register(&rmCmd{}, "ledger")
	c.Register(&listCmd{}, "ledger")

	c.Register(&summaryCmd{}, "reports")
	c.Register(&monthlyCmd{}, "reports")
	c.Register(&dailyCmd{}, "reports")
	c.Register(&budgetCmd{}, "reports")

	c.Register(&insightsCmd{}, "insights")
	c.Register(&suggestCmd{}, "insights")

	c.Register(&watchCmd{}, "realtime")
}

// config holds the environment-driven settings. A .env file in the working
// directory is honored but not required.
type config struct {
	DatabaseURL string // postgres DSN of the remote store
	InsightURL  string // base URL of the insight service, optional
	AccessToken string // access token carrying the principal in its subject
	Currency    string // display currency, ISO 4217
}

func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg(".env file not loaded")
	}
	cfg := config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		InsightURL:  os.Getenv("INSIGHT_URL"),
		AccessToken: os.Getenv("ACCESS_TOKEN"),
		Currency:    os.Getenv("CURRENCY"),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.AccessToken == "" {
		return cfg, fmt.Errorf("ACCESS_TOKEN is not set")
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return cfg, nil
}

// app bundles everything a subcommand needs once the session is up.
type app struct {
	cfg     config
	store   *store.Postgres
	session *session.Session
}

// openApp builds the session for the principal carried by the access token
// and seeds its ledger. Every subcommand goes through here; the returned app
// must be closed.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	owner, err := session.PrincipalFromToken(cfg.AccessToken)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	s := session.New(st, st.Subscribe, store.LogHook(logger))
	if err := s.SetPrincipal(ctx, owner); err != nil {
		st.Close()
		return nil, err
	}
	return &app{cfg: cfg, store: st, session: s}, nil
}

func (a *app) close(ctx context.Context) {
	a.session.Close(ctx)
	a.store.Close()
}

// insightClient returns a client for the insight service, or nil when none
// is configured. Callers fall back locally on nil.
func (a *app) insightClient() *insight.Client {
	if a.cfg.InsightURL == "" {
		return nil
	}
	return insight.NewClient(a.cfg.InsightURL).Observe(store.LogHook(logger))
}
