package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"mini-quiz/internal/domain"
)

// Response codes documented by the Open Trivia DB API.
const (
	codeSuccess       = 0
	codeNoResults     = 1
	codeInvalidParam  = 2
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
	codeRateLimited   = 5
)

// TokenStore keeps the session token that stops the service from repeating questions.
type TokenStore interface {
	Token(ctx context.Context) (string, bool, error)
	SaveToken(ctx context.Context, token string) error
	DeleteToken(ctx context.Context) error
}

// Params selects the question set requested on every fetch.
type Params struct {
	Amount     int
	Category   int
	Difficulty string
	Type       string
}

// Client fetches and normalizes question sets from the Open Trivia DB.
type Client struct {
	baseURL    string
	params     Params
	httpClient *http.Client
	normalizer *Normalizer
	tokens     TokenStore
	sf         singleflight.Group
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore enables session tokens; without it requests are anonymous.
func WithTokenStore(store TokenStore) ClientOption {
	return func(c *Client) { c.tokens = store }
}

func WithNormalizer(n *Normalizer) ClientOption {
	return func(c *Client) { c.normalizer = n }
}

func NewClient(baseURL string, params Params, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		params:     params,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = NewNormalizer(nil)
	}
	return c
}

type questionsResponse struct {
	ResponseCode int                  `json:"response_code"`
	Results      []domain.RawQuestion `json:"results"`
}

type tokenResponse struct {
	ResponseCode    int    `json:"response_code"`
	ResponseMessage string `json:"response_message"`
	Token           string `json:"token"`
}

// FetchQuestions issues one request for a question set. Failures wrap
// domain.ErrNetwork; an empty set is domain.ErrEmptyResult.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	token := c.token(ctx)

	var payload questionsResponse
	if err := c.getJSON(ctx, c.questionsURL(token), &payload); err != nil {
		return nil, err
	}

	switch payload.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return nil, domain.ErrEmptyResult
	case codeInvalidParam:
		return nil, fmt.Errorf("%w: invalid request parameters", domain.ErrNetwork)
	case codeTokenNotFound:
		if c.tokens != nil {
			_ = c.tokens.DeleteToken(ctx)
		}
		return nil, fmt.Errorf("%w: session token not found", domain.ErrNetwork)
	case codeTokenEmpty:
		c.resetToken(ctx, token)
		return nil, fmt.Errorf("%w: session token exhausted", domain.ErrNetwork)
	case codeRateLimited:
		return nil, fmt.Errorf("%w: rate limited", domain.ErrNetwork)
	default:
		return nil, fmt.Errorf("%w: response code %d", domain.ErrNetwork, payload.ResponseCode)
	}

	if len(payload.Results) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return c.normalizer.Normalize(payload.Results), nil
}

// ResetToken drops the stored token so the next fetch requests a fresh one.
func (c *Client) ResetToken(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.DeleteToken(ctx)
}

func (c *Client) questionsURL(token string) string {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(c.params.Amount))
	if c.params.Category > 0 {
		q.Set("category", strconv.Itoa(c.params.Category))
	}
	if c.params.Difficulty != "" {
		q.Set("difficulty", c.params.Difficulty)
	}
	if c.params.Type != "" {
		q.Set("type", c.params.Type)
	}
	if token != "" {
		q.Set("token", token)
	}
	return c.baseURL + "/api.php?" + q.Encode()
}

// token returns the stored session token, requesting one if needed. Token
// trouble never blocks a fetch; the request just goes out without one.
func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	if tok, ok, err := c.tokens.Token(ctx); err == nil && ok {
		return tok
	}

	result, err, _ := c.sf.Do("token", func() (interface{}, error) {
		// Re-check in case a concurrent caller stored one.
		if tok, ok, err := c.tokens.Token(ctx); err == nil && ok {
			return tok, nil
		}
		var payload tokenResponse
		if err := c.getJSON(ctx, c.baseURL+"/api_token.php?command=request", &payload); err != nil {
			return "", err
		}
		if payload.ResponseCode != codeSuccess || payload.Token == "" {
			return "", fmt.Errorf("%w: token request code %d", domain.ErrNetwork, payload.ResponseCode)
		}
		_ = c.tokens.SaveToken(ctx, payload.Token)
		return payload.Token, nil
	})
	if err != nil {
		return ""
	}
	return result.(string)
}

func (c *Client) resetToken(ctx context.Context, token string) {
	if c.tokens == nil || token == "" {
		return
	}
	var payload tokenResponse
	resetURL := c.baseURL + "/api_token.php?command=reset&token=" + url.QueryEscape(token)
	if err := c.getJSON(ctx, resetURL, &payload); err != nil || payload.ResponseCode != codeSuccess {
		_ = c.tokens.DeleteToken(ctx)
	}
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: http status %d", domain.ErrNetwork, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrNetwork, err)
	}
	return nil
}
