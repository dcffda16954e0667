// services/cost_service.go
package services

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// Cost per 1M tokens
var costPerToken = map[string]struct{ input, output float64 }{
	"gpt-5":                    {input: 1.25, output: 10.00},
	"gpt-5-mini":               {input: 0.25, output: 2.00},
	"gpt-4.1":                  {input: 3.00, output: 12.00},
	"gpt-4.1-mini":             {input: 0.80, output: 3.20},
	"gpt-4o":                   {input: 2.50, output: 10.00},
	"claude-sonnet-4-5":        {input: 3.00, output: 15.00},
	"claude-sonnet-4-20250514": {input: 3.00, output: 15.00},
	"claude-haiku-4-5":         {input: 1.00, output: 5.00},
	"gemini-2.5-pro":           {input: 1.25, output: 10.00},
	"gemini-2.0-flash":         {input: 0.10, output: 0.40},
	"sonar":                    {input: 1.00, output: 1.00},
	"sonar-pro":                {input: 3.00, output: 15.00},
}

// Fallback per-provider pricing when a model is missing from the table.
var defaultModelByProvider = map[string]string{
	"openai":     "gpt-4.1",
	"anthropic":  "claude-sonnet-4-5",
	"gemini":     "gemini-2.5-pro",
	"perplexity": "sonar",
}

func (s *costService) CalculateCost(provider string, model string, inputTokens int, outputTokens int) float64 {
	modelCosts, exists := costPerToken[model]
	if !exists {
		fallback, ok := defaultModelByProvider[provider]
		if !ok {
			fallback = "gpt-4.1"
		}
		modelCosts = costPerToken[fallback]
	}

	inputCost := (float64(inputTokens) / 1_000_000.0) * modelCosts.input
	outputCost := (float64(outputTokens) / 1_000_000.0) * modelCosts.output
	return inputCost + outputCost
}
