package gemini

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantfinder/backend/pkg/config"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
	"google.golang.org/genai"
)

const (
	defaultModel    = "gemini-2.0-flash-001"
	maxOutputTokens = 1000
	defaultTimeout  = 30 * time.Second
	modeGenerate    = "generate"
	modeStream      = "stream"
)

// modelsAPI is the subset of *genai.Models used by the client
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client implements providers.TextGenerator on top of the Gemini API.
// A Client built without a usable API key is never ready and fails every
// call with NOT_INITIALIZED.
type Client struct {
	models  modelsAPI
	model   string
	timeout time.Duration
	usage   providers.UsageRecorder
	limiter *tokenBucket
}

// NewClient creates a new Gemini client. A missing or placeholder key is
// not an error: the returned client simply reports Ready() == false.
// An SDK initialization failure returns a not-ready client and the error.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, timeout time.Duration, usage providers.UsageRecorder) (*Client, error) {
	client := &Client{
		model:   defaultModel,
		timeout: timeout,
		usage:   usage,
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	if cfg == nil || !cfg.Enabled() {
		log.Warn().Msg("gemini API key not configured, AI analysis disabled")
		return client, nil
	}
	if cfg.Model != "" {
		client.model = cfg.Model
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return client, apperrors.New(apperrors.ErrorTypeNotInitialized, "failed to initialize gemini client", err)
	}

	client.models = sdk.Models
	client.limiter = newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst)
	log.Info().Str("model", client.model).Msg("gemini client initialized")
	return client, nil
}

func newClientWithModels(models modelsAPI, model string, timeout time.Duration, usage providers.UsageRecorder) *Client {
	return &Client{
		models:  models,
		model:   model,
		timeout: timeout,
		usage:   usage,
	}
}

// Ready reports whether the client has an initialized model
func (c *Client) Ready() bool {
	return c != nil && c.models != nil
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

// Close stops the rate limiter. Calls that need a token fail with
// NOT_INITIALIZED afterwards.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Close()
	}
}

// Generate sends prompt to the model and returns the full response text.
// Every attempt is counted as aiAnalysis usage, successful or not.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Ready() {
		return "", apperrors.NewNotInitializedError()
	}
	c.recordUsage()

	if err := c.waitForToken(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
	if err != nil {
		classified := classifyError(err)
		recordGeminiMetric(ctx, c.model, modeGenerate, time.Since(start), classified)
		return "", classified
	}

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if strings.TrimSpace(text) == "" {
		blocked := blockedResponseError(resp)
		recordGeminiMetric(ctx, c.model, modeGenerate, time.Since(start), blocked)
		return "", blocked
	}

	recordGeminiMetric(ctx, c.model, modeGenerate, time.Since(start), nil)
	return text, nil
}

// GenerateStream yields the response in chunks. The sequence may be ranged
// over once; later iterations yield a single error.
func (c *Client) GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	var consumed atomic.Bool

	return func(yield func(string, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield("", apperrors.New(apperrors.ErrorTypeInternal, "stream already consumed", nil))
			return
		}
		if !c.Ready() {
			yield("", apperrors.NewNotInitializedError())
			return
		}
		c.recordUsage()

		if err := c.waitForToken(ctx); err != nil {
			yield("", err)
			return
		}

		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		received := 0
		var last *genai.GenerateContentResponse
		for resp, err := range c.models.GenerateContentStream(ctx, c.model, genai.Text(prompt), generationConfig()) {
			if err != nil {
				classified := classifyError(err)
				recordGeminiMetric(ctx, c.model, modeStream, time.Since(start), classified)
				yield("", classified)
				return
			}
			if resp == nil {
				continue
			}
			last = resp
			chunk := resp.Text()
			if chunk == "" {
				continue
			}
			received += len(chunk)
			if !yield(chunk, nil) {
				recordGeminiMetric(ctx, c.model, modeStream, time.Since(start), nil)
				return
			}
		}

		if received == 0 {
			blocked := blockedResponseError(last)
			recordGeminiMetric(ctx, c.model, modeStream, time.Since(start), blocked)
			yield("", blocked)
			return
		}
		recordGeminiMetric(ctx, c.model, modeStream, time.Since(start), nil)
	}
}

func (c *Client) recordUsage() {
	if c.usage != nil {
		c.usage.Record(entities.UsageAIAnalysis)
	}
}

func (c *Client) waitForToken(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, errLimiterClosed) {
			return apperrors.New(apperrors.ErrorTypeNotInitialized, "gemini client is closed", err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return newClassifiedError(apperrors.ErrorTypeRateLimited, err)
		}
		return err
	}
	recordGeminiRateLimitWait(ctx, c.model, time.Since(waitStart))
	return nil
}

// generationConfig holds the fixed sampling parameters and safety settings.
func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](20),
		MaxOutputTokens: maxOutputTokens,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}
}
