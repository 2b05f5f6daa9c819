package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salescribe/salescribe/internal/anthropic"
	"github.com/salescribe/salescribe/internal/api"
	"github.com/salescribe/salescribe/internal/bus"
	"github.com/salescribe/salescribe/internal/config"
	"github.com/salescribe/salescribe/internal/conversation"
	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/extractor"
	"github.com/salescribe/salescribe/internal/record"
	"github.com/salescribe/salescribe/internal/scoring"
	"github.com/salescribe/salescribe/internal/slack"
	"github.com/salescribe/salescribe/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("salescribe starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Extractor and scorer share the LLM client
	ext := extractor.New(llm, slog.Default())
	scorer := scoring.New(llm, slog.Default())

	// Salesforce — degrades to preview mode when not configured
	creds := crm.Credentials{
		InstanceURL:  cfg.SalesforceInstanceURL,
		ClientID:     cfg.SalesforceClientID,
		ClientSecret: cfg.SalesforceClientSecret,
		RefreshToken: cfg.SalesforceRefreshToken,
	}
	crmClient := crm.NewClient(creds, slog.Default())
	slog.Info("crm client ready", "mode", crmClient.Mode())

	// Sessions and the conversation engine
	sessions := conversation.NewSessionStore()
	ctrl := conversation.NewController(ext, crmClient, slog.Default())

	// Audit store (optional — submissions still work without a database)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without submission audit")
	}

	// Slack poster (optional)
	var slackPoster *slack.Poster
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		slackPoster = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured — running without submission notifications")
	}

	// NATS (optional — chat surfaces can also use the HTTP API)
	var busClient *bus.Client
	if cfg.NatsURL != "" {
		var err error
		busClient, err = bus.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)

		listener := bus.NewListener(busClient, sessions, ctrl, slog.Default())
		if err := listener.Start(ctx); err != nil {
			slog.Error("failed to subscribe to chat messages", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("NATS_URL not set — running without the message bus")
	}

	// Everything that should happen after a submission hangs off this hook.
	ctrl.OnSubmit(func(ctx context.Context, st *conversation.State, data *record.CallData, res crm.Result) {
		if db != nil {
			if _, err := db.WriteSubmission(ctx, st.ID, data, res); err != nil {
				slog.Error("failed to write submission audit", "error", err, "session_id", st.ID)
			}
		}
		if slackPoster != nil {
			if _, err := slackPoster.PostSubmission(ctx, st.ID, data, &res); err != nil {
				slog.Error("failed to post submission to slack", "error", err, "session_id", st.ID)
			}
		}
		if busClient != nil {
			event := bus.SubmittedEvent{
				SessionID:     st.ID,
				Mode:          string(res.Mode),
				AccountID:     res.Account.ID,
				ContactID:     res.Contact.ID,
				OpportunityID: res.Opportunity.ID,
				Errors:        res.Errors(),
				At:            time.Now().UTC(),
			}
			if err := busClient.Publish(bus.SubjectSubmitted, event); err != nil {
				slog.Warn("failed to publish submitted event", "error", err)
			}
		}
	})

	// HTTP API
	srv := api.NewServer(cfg.Port, sessions, ctrl, scorer, crmClient.Mode())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("salescribe ready", "port", cfg.Port, "crm_mode", crmClient.Mode())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("salescribe stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
