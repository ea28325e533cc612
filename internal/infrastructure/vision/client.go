// Package vision identifies watches in photographs through an OpenAI-compatible
// chat completions API with image input.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
)

const (
	maxImageBytes  = 20 << 20
	defaultMaxToks = 300
)

const identifyPrompt = `Identify this watch. Return ONLY JSON:
{
    "brand": "exact brand name",
    "model": "exact model name",
    "confidence": "high or low"
}`

// Config holds settings for the classifier client
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	ImageTimeout time.Duration
	MaxTokens    int
}

// Client calls the vision model
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	model        string
	timeout      time.Duration
	imageTimeout time.Duration
	maxTokens    int
	logger       *zap.Logger
}

// NewClient creates a new classifier client
func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	imageTimeout := cfg.ImageTimeout
	if imageTimeout <= 0 {
		imageTimeout = 15 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxToks
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	return &Client{
		httpClient:   &http.Client{},
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        model,
		timeout:      timeout,
		imageTimeout: imageTimeout,
		maxTokens:    maxTokens,
		logger:       logger.OrNop(log).Named("vision"),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify downloads the image at imageRef and asks the model to identify the watch
func (c *Client) Classify(ctx context.Context, imageRef string) (*domain.ClassifierGuess, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", domain.ErrClassifierFailure)
	}

	image, contentType, err := c.downloadImage(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	payload := chatRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: identifyPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	guess, err := ParseGuess(content)
	if err != nil {
		c.logger.Warn("unparseable classifier reply", zap.String("content", content), zap.Error(err))
		return nil, err
	}

	c.logger.Info("classified image",
		zap.String("brand", guess.Brand),
		zap.String("model", guess.Model),
		zap.String("confidence", string(guess.Confidence)),
	)
	return guess, nil
}

// downloadImage fetches the photograph and reports its image content type
func (c *Client) downloadImage(ctx context.Context, imageRef string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad image reference: %v", domain.ErrClassifierFailure, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download image: %v", domain.ErrClassifierFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: image status %d", domain.ErrClassifierFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %v", domain.ErrClassifierFailure, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	if i := strings.Index(contentType, ";"); i > 0 {
		contentType = contentType[:i]
	}
	return body, contentType, nil
}

// complete posts a chat completion and returns the first choice's content
func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrClassifierFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrClassifierFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrClassifierFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("classifier API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return "", fmt.Errorf("%w: status %d", domain.ErrClassifierFailure, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrClassifierFailure, err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrClassifierFailure)
	}
	return chat.Choices[0].Message.Content, nil
}
