package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/meeting-summarizer/internal/domain/dispatch"
	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/meeting-summarizer/internal/infra/mailer"
	"github.com/yanqian/meeting-summarizer/internal/infra/summarycache"
	"github.com/yanqian/meeting-summarizer/internal/infra/tokenizer"
	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
)

func provideSummaryConfig(cfg *config.Config) summary.Config {
	return summary.Config{
		Model:              cfg.LLM.Model,
		Temperature:        cfg.LLM.Temperature,
		DefaultInstruction: cfg.Summary.DefaultInstruction,
		UpstreamTimeout:    cfg.LLM.Timeout,
	}
}

func provideDispatchConfig(*config.Config) dispatch.Config {
	return dispatch.Config{SubjectPrefix: "Meeting Summary"}
}

func provideChatClient(cfg *config.Config) *chatgpt.Client {
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
}

func provideMailer(cfg *config.Config, logger *slog.Logger) *mailer.SMTPMailer {
	return mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)
}

func provideTokenEstimator(cfg *config.Config) summary.TokenEstimator {
	return tokenizer.New(cfg.LLM.Model)
}

func provideLimiters(cfg *config.Config) *ratelimit.Set {
	return &ratelimit.Set{
		Summarize: ratelimit.NewLimiter(ratelimit.Policy{
			Name:   "summarize",
			Budget: cfg.Limits.Summarize.Budget,
			Window: cfg.Limits.Summarize.Window,
			Block:  cfg.Limits.Summarize.Block,
		}),
		Email: ratelimit.NewLimiter(ratelimit.Policy{
			Name:   "email",
			Budget: cfg.Limits.Email.Budget,
			Window: cfg.Limits.Email.Window,
			Block:  cfg.Limits.Email.Block,
		}),
		General: ratelimit.NewLimiter(ratelimit.Policy{
			Name:   "general",
			Budget: cfg.Limits.General.Budget,
			Window: cfg.Limits.General.Window,
			Block:  cfg.Limits.General.Block,
		}),
	}
}

// provideSummaryStore prefers Valkey when configured and reachable, and
// falls back to the in-memory cache otherwise.
func provideSummaryStore(cfg *config.Config, logger *slog.Logger) summary.Store {
	fallback := summarycache.NewMemoryStore(cfg.Summary.CacheTTL, cfg.Summary.CacheMaxEntries)
	addr := strings.TrimSpace(cfg.Summary.ValkeyAddr)
	if addr == "" {
		return fallback
	}

	opt, err := buildValkeyOptions(addr)
	if err != nil {
		logger.Error("invalid valkey configuration, using memory cache", "error", err)
		return fallback
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, using memory cache", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, using memory cache", "error", err)
		client.Close()
		return fallback
	}
	logger.Info("valkey summary cache enabled", "addr", addr)
	return summarycache.NewValkeyStore(client, "summary", cfg.Summary.CacheTTL)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
