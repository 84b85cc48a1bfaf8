package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://slack.com/api"

// Message is the body of chat.postMessage.
type Message struct {
	Channel     string       `json:"channel"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	UnfurlLinks *bool        `json:"unfurl_links,omitempty"`
}

type Attachment struct {
	Fallback   string   `json:"fallback,omitempty"`
	Color      string   `json:"color,omitempty"`
	Pretext    string   `json:"pretext,omitempty"`
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text,omitempty"`
	Footer     string   `json:"footer,omitempty"`
	MarkdownIn []string `json:"mrkdwn_in,omitempty"`
}

// Client talks to the Slack Web API on behalf of one workspace.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string

	limiter *rate.Limiter
}

// NewClient builds a workspace client. The limiter may be shared between
// clients; nil disables client-side throttling.
func NewClient(token string, limiter *rate.Limiter) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: DefaultBaseURL,
		Token:   token,
		limiter: limiter,
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) PostMessage(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Channel) == "" {
		return fmt.Errorf("slack chat.postMessage: channel is required")
	}
	return c.call(ctx, "chat.postMessage", msg)
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("slack %s: encode body: %w", method, err)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/"+method, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Code: "ratelimited", Kind: KindRateLimited}
	}
	if resp.StatusCode >= 500 {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Kind: KindServerError}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Kind: KindUnknown}
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("slack %s: decode response: %w", method, err)
	}
	if !out.OK {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Code: out.Error, Kind: kindFromCode(out.Error)}
	}
	return nil
}
