// cmd/providercheck/main.go
//
// Smoke-checks configured provider adapters with a single live query.
// Useful when rotating API keys or onboarding a new model.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
)

var defaultModels = map[string]string{
	"openai":     "gpt-4.1",
	"anthropic":  "claude-sonnet-4-5",
	"gemini":     "gemini-2.5-pro",
	"perplexity": "sonar",
}

func main() {
	providerFlag := flag.String("provider", "", "provider to check (default: all with configured keys)")
	modelFlag := flag.String("model", "", "model override")
	queryFlag := flag.String("query", "What are the top 3 CRM platforms for small businesses?", "query to send")
	timeoutFlag := flag.Duration("timeout", 90*time.Second, "per-call timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment variables")
	}
	cfg := config.Load()

	names := providers.SupportedProviders
	if *providerFlag != "" {
		names = []string{strings.ToLower(*providerFlag)}
	}

	failures := 0
	for _, name := range names {
		model := *modelFlag
		if model == "" {
			model = defaultModels[name]
		}

		adapter, err := providers.NewProvider(name, cfg)
		if err != nil {
			fmt.Printf("%-11s SKIP  %v\n", name, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
		start := time.Now()
		result, err := adapter.Execute(ctx, *queryFlag, model)
		cancel()

		if err != nil {
			failures++
			fmt.Printf("%-11s FAIL  %s (%v)\n", name, model, err)
			continue
		}
		fmt.Printf("%-11s OK    %s  %d in / %d out tokens  %s  %q\n",
			name, model, result.InputTokens, result.OutputTokens,
			time.Since(start).Round(time.Millisecond), excerpt(result.Text, 80))
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
