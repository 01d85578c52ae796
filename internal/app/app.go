package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"classifybot/internal/classify"
	"classifybot/internal/config"
	"classifybot/internal/feedback"
	"classifybot/internal/history"
	"classifybot/internal/httpx"
	"classifybot/internal/integrations/llm"
	"classifybot/internal/knowledge"
	"classifybot/internal/logger"
	"classifybot/internal/review"
	"classifybot/internal/storage"

	"github.com/slack-go/slack"
)

var version = "dev"

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, openRuntime).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// runtime is everything a command needs, built from config for one
// invocation.
type runtime struct {
	cfg      config.Config
	backend  storage.Backend
	kb       knowledge.Base
	history  *history.Store
	feedback *feedback.Store
	service  *classify.Service
	slack    review.Poster
}

func (rt *runtime) Close() error {
	if rt.backend == nil {
		return nil
	}
	return rt.backend.Close()
}

// opener builds a runtime. withModel also loads the knowledge base and
// constructs the completion adapter.
type opener func(ctx context.Context, withModel bool) (*runtime, error)

func openRuntime(ctx context.Context, withModel bool) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		return nil, err
	}
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	logger.Debug().
		Str("provider", cfg.LLMProvider).
		Str("model", cfg.LLMModel).
		Str("store_backend", cfg.StoreBackend).
		Int("feedback_example_limit", cfg.FeedbackExampleLimit).
		Dur("llm_timeout", cfg.LLMTimeout()).
		Dur("external_http_timeout", appliedHTTPTimeout).
		Msg("config loaded")

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		backend:  backend,
		history:  history.NewStore(backend),
		feedback: feedback.NewStore(backend),
	}
	if cfg.SlackBotToken != "" {
		rt.slack = slack.New(cfg.SlackBotToken, slack.OptionHTTPClient(httpx.ExternalHTTPClient()))
	}

	var completer llm.Completer
	if withModel {
		rt.kb = knowledge.Load(cfg.DepartmentsPath, cfg.RegulationPath, knowledge.PDFExtractor{})
		completer, err = llm.NewCompleter(ctx, cfg, httpx.ExternalHTTPClient())
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	opts := []classify.Option{
		classify.WithFeedbackExampleLimit(cfg.FeedbackExampleLimit),
		classify.WithMaxContentChars(cfg.MaxContentChars),
	}
	if rt.slack != nil && cfg.ReviewChannelID != "" {
		opts = append(opts, classify.WithReviewNotifier(review.NewNotifier(rt.slack, cfg.ReviewChannelID)))
	}
	rt.service = classify.NewService(completer, rt.kb, rt.feedback, rt.history, opts...)
	return rt, nil
}
