//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/meeting-summarizer/internal/bootstrap"
	"github.com/yanqian/meeting-summarizer/internal/domain/dispatch"
	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
	"github.com/yanqian/meeting-summarizer/internal/infra/config"
	"github.com/yanqian/meeting-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/meeting-summarizer/internal/infra/mailer"
	httpiface "github.com/yanqian/meeting-summarizer/internal/interface/http"
	"github.com/yanqian/meeting-summarizer/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSummaryConfig,
		provideDispatchConfig,
		provideChatClient,
		provideMailer,
		provideTokenEstimator,
		provideLimiters,
		provideSummaryStore,
		summary.NewService,
		dispatch.NewService,
		wire.Bind(new(summary.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(dispatch.Mailer), new(*mailer.SMTPMailer)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
