package anthropic

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealmatch-cli/internal/resilience"
)

// ClassifyRequest carries the two sides of a fit comparison plus the prompt
// framing for the specific scoring dimension.
type ClassifyRequest struct {
	System    string
	DealText  string
	BuyerText string
}

// ClassifyResult is the model's verdict: a 0-100 fit score and a short
// free-text rationale.
type ClassifyResult struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// Classifier scores deal/buyer text pairs. Implementations must respect the
// context deadline; callers always carry a deterministic fallback.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error)
}

const classifyUserPrompt = `DEAL:
%DEAL%

BUYER:
%BUYER%

Respond with a valid JSON object: {"score": <0-100>, "reasoning": "<one or two sentences>"}`

// MessageClassifier implements Classifier over a raw message Client with a
// fixed per-call timeout. Transient API failures are retried with backoff
// inside that timeout.
type MessageClassifier struct {
	client  Client
	model   string
	timeout time.Duration
	retry   resilience.RetryConfig
}

// NewClassifier creates a MessageClassifier.
func NewClassifier(client Client, model string, timeout time.Duration) *MessageClassifier {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "classify")
	return &MessageClassifier{client: client, model: model, timeout: timeout, retry: retry}
}

func (c *MessageClassifier) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := strings.NewReplacer(
		"%DEAL%", req.DealText,
		"%BUYER%", req.BuyerText,
	).Replace(classifyUserPrompt)

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*MessageResponse, error) {
		return c.client.CreateMessage(ctx, MessageRequest{
			Model:     c.model,
			MaxTokens: 256,
			System:    req.System,
			Messages: []Message{
				{Role: "user", Content: prompt},
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: classify")
	}

	result, err := ParseClassifyResult(resp.Text())
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(c.model, "classify")
	return result, nil
}

// ParseClassifyResult extracts a {score, reasoning} JSON object from model
// output, tolerating surrounding prose and code fences.
func ParseClassifyResult(text string) (*ClassifyResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("anthropic: no JSON object in response: %q", truncate(text, 120))
	}

	var result ClassifyResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &result); err != nil {
		return nil, eris.Wrap(err, "anthropic: parse classify result")
	}
	if result.Score < 0 || result.Score > 100 {
		return nil, eris.Errorf("anthropic: score out of range: %.1f", result.Score)
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
