package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/proposalpilot-backend/internal/domain/proposal"
	"github.com/yungbote/proposalpilot-backend/internal/pkg/httpx"
	"github.com/yungbote/proposalpilot-backend/internal/platform/envutil"
	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRetries is 0 unless configured; the pipeline performs no retries of its own.
	MaxRetries         int
	DisableTemperature bool
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:             envutil.String("OPENAI_API_KEY", ""),
		BaseURL:            envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:              envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:            envutil.Duration("OPENAI_TIMEOUT_SECONDS", 120*time.Second),
		MaxRetries:         envutil.Int("OPENAI_MAX_RETRIES", 0),
		DisableTemperature: envutil.Bool("OPENAI_DISABLE_TEMPERATURE", false),
	}
}

// Client calls the Responses API. It implements proposal.ModelInvoker and
// proposal.StructuredInvoker; every failure is a *proposal.InvocationError.
type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int

	disableTemperature bool

	// Models that rejected sampling parameters; they are omitted afterwards.
	noTempMu   sync.RWMutex
	noTempSeen map[string]time.Time
	noTempTTL  time.Duration
}

var (
	_ proposal.ModelInvoker      = (*Client)(nil)
	_ proposal.StructuredInvoker = (*Client)(nil)
)

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if log == nil {
		log = logger.Nop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		log:                log.With("service", "OpenAIClient"),
		baseURL:            baseURL,
		apiKey:             strings.TrimSpace(cfg.APIKey),
		model:              model,
		httpClient:         &http.Client{Timeout: timeout},
		maxRetries:         maxRetries,
		disableTemperature: cfg.DisableTemperature,
		noTempSeen:         map[string]time.Time{},
		noTempTTL:          6 * time.Hour,
	}, nil
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	TopP            *float64       `json:"top_p,omitempty"`

	Text *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *Client) newRequest(req proposal.InvokeRequest) *responsesRequest {
	r := &responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxOutputTokens: req.MaxTokens,
	}
	if r.Input[0].Content == "" {
		r.Input = r.Input[1:]
	}
	if !c.disableTemperature && !c.modelIsNoTemp(c.model) {
		if req.Temperature > 0 {
			t := req.Temperature
			r.Temperature = &t
		}
		if req.TopP > 0 {
			p := req.TopP
			r.TopP = &p
		}
	}
	return r
}

// Invoke returns the model's text output for a single prompt.
func (c *Client) Invoke(ctx context.Context, req proposal.InvokeRequest) (string, error) {
	var resp responsesResponse
	if err := c.doResponses(ctx, c.newRequest(req), &resp); err != nil {
		return "", classify(err)
	}
	text, refusal := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		if refusal != "" {
			return "", &proposal.InvocationError{Err: fmt.Errorf("model refused: %s", refusal)}
		}
		return "", &proposal.InvocationError{Err: errors.New("no output_text found in response")}
	}
	return text, nil
}

// InvokeJSON uses strict json_schema output and decodes the single object.
func (c *Client) InvokeJSON(ctx context.Context, req proposal.InvokeRequest, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" || schema == nil {
		return nil, &proposal.InvocationError{Err: errors.New("schema name and schema are required")}
	}
	r := c.newRequest(req)
	r.Text = &struct {
		Format map[string]any `json:"format,omitempty"`
	}{Format: map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}}

	var resp responsesResponse
	if err := c.doResponses(ctx, r, &resp); err != nil {
		return nil, classify(err)
	}
	text, refusal := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		if refusal != "" {
			return nil, &proposal.InvocationError{Err: fmt.Errorf("model refused: %s", refusal)}
		}
		return nil, &proposal.InvocationError{Err: errors.New("no output_text found in response")}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &proposal.InvocationError{Err: fmt.Errorf("failed to parse model JSON: %w", err)}
	}
	return obj, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// classify maps transport and API failures onto the invocation error
// taxonomy. A missing model or endpoint, a gateway outage or a refused
// connection counts as the service being unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ie *proposal.InvocationError
	if errors.As(err, &ie) {
		return ie
	}
	out := &proposal.InvocationError{Err: err}
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		out.StatusCode = httpErr.StatusCode
		body := strings.ToLower(httpErr.Body)
		out.Unavailable = httpErr.StatusCode == http.StatusNotFound ||
			httpx.IsGatewayStatus(httpErr.StatusCode) ||
			strings.Contains(body, "model_not_found")
		return out
	}
	out.Unavailable = httpx.IsConnectionRefused(err)
	return out
}

func (c *Client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, body any, out any) error {
	backoff := 1 * time.Second
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if attempt >= c.maxRetries || !httpx.IsRetryableError(err) {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
}

// doResponses retries exactly once without sampling parameters if the model
// rejects them, and remembers the model for noTempTTL.
func (c *Client) doResponses(ctx context.Context, req *responsesRequest, out any) error {
	err := c.do(ctx, req, out)
	if err == nil || (req.Temperature == nil && req.TopP == nil) {
		return err
	}
	if !isUnsupportedSamplingParam(err) {
		return err
	}
	c.noteNoTempModel(req.Model)
	req.Temperature = nil
	req.TopP = nil
	return c.do(ctx, req, out)
}

func isUnsupportedSamplingParam(err error) bool {
	var httpErr *openAIHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(httpErr.Body)
	if !strings.Contains(msg, "temperature") && !strings.Contains(msg, "top_p") {
		return false
	}
	for _, marker := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) modelIsNoTemp(model string) bool {
	key := strings.ToLower(strings.TrimSpace(model))
	c.noTempMu.RLock()
	seen, ok := c.noTempSeen[key]
	c.noTempMu.RUnlock()
	return ok && time.Since(seen) < c.noTempTTL
}

func (c *Client) noteNoTempModel(model string) {
	key := strings.ToLower(strings.TrimSpace(model))
	c.noTempMu.Lock()
	c.noTempSeen[key] = time.Now()
	c.noTempMu.Unlock()
	c.log.Warn("model rejected sampling parameters; omitting them", "model", model)
}
