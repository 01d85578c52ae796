package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"classifybot/internal/config"
	"classifybot/internal/feedback"
	"classifybot/internal/history"
	"classifybot/internal/httpx"
	"classifybot/internal/knowledge"

	"github.com/ollama/ollama/api"
	"github.com/spf13/cobra"
)

func (c *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, knowledge base, store and model server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()
			return runDoctor(cmd.Context(), c.out, rt, ollamaProbe)
		},
	}
}

// modelProbe reports whether the model server is reachable and which models
// it has.
type modelProbe func(ctx context.Context, baseURL string) ([]string, error)

func ollamaProbe(ctx context.Context, baseURL string) ([]string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse llm_base_url: %w", err)
	}
	client := api.NewClient(u, httpx.ExternalHTTPClient())
	if err := client.Heartbeat(ctx); err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", baseURL, err)
	}
	resp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func runDoctor(ctx context.Context, out io.Writer, rt *runtime, probe modelProbe) error {
	cfg := rt.cfg
	problems := 0
	check := func(ok bool, format string, a ...any) {
		mark := "ok  "
		if !ok {
			mark = "FAIL"
			problems++
		}
		fmt.Fprintf(out, "[%s] %s\n", mark, fmt.Sprintf(format, a...))
	}

	fmt.Fprintf(out, "provider=%s model=%s store=%s\n", cfg.LLMProvider, cfg.LLMModel, cfg.StoreBackend)

	depts := knowledge.LoadText(cfg.DepartmentsPath)
	check(depts != "", "department list %s (%d chars)", cfg.DepartmentsPath, len([]rune(depts)))
	kb := knowledge.Load("", cfg.RegulationPath, knowledge.PDFExtractor{})
	check(kb.Regulation != "", "regulation %s (%d chars)", cfg.RegulationPath, len([]rune(kb.Regulation)))

	fb, err := rt.feedback.Load(ctx)
	check(err == nil, "%s collection readable (%d entries)", feedback.CollectionName, len(fb))
	hist, err := rt.history.List(ctx)
	check(err == nil, "%s collection readable (%d records)", history.CollectionName, len(hist))

	if cfg.LLMProvider == "ollama" && probe != nil {
		models, err := probe(ctx, cfg.LLMBaseURL)
		if err != nil {
			check(false, "%v", err)
		} else {
			check(true, "ollama reachable at %s", cfg.LLMBaseURL)
			check(hasModel(models, cfg.LLMModel), "model %s pulled", cfg.LLMModel)
		}
	}

	check(cfg.SlackBotToken == "" || cfg.ReviewChannelID != "", "review notifications %s", reviewState(cfg))

	if problems > 0 {
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	return nil
}

func hasModel(models []string, want string) bool {
	for _, m := range models {
		if m == want || strings.TrimSuffix(m, ":latest") == want {
			return true
		}
	}
	return false
}

func reviewState(cfg config.Config) string {
	switch {
	case cfg.ReviewConfigured():
		return "enabled for " + cfg.ReviewChannelID
	case cfg.SlackBotToken != "":
		return "misconfigured: slack_bot_token set without review_channel_id"
	default:
		return "disabled"
	}
}
