package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

const trelloBaseURL = "https://api.trello.com/1"

// Credentials are the OAuth1 consumer and token pairs issued by Trello.
type Credentials struct {
	APIKey      string
	APISecret   string
	OAuthToken  string
	OAuthSecret string
}

// TrelloClient is a minimal Trello REST client. Every request is signed with
// OAuth1 using the configured credentials.
type TrelloClient struct {
	baseURL string
	client  *http.Client
}

type TrelloOption func(*TrelloClient)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) TrelloOption {
	return func(c *TrelloClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) TrelloOption {
	return func(c *TrelloClient) { c.client.Timeout = d }
}

func NewTrelloClient(creds Credentials, opts ...TrelloOption) *TrelloClient {
	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.OAuthToken, creds.OAuthSecret)

	c := &TrelloClient{
		baseURL: trelloBaseURL,
		client:  config.Client(context.Background(), token),
	}
	c.client.Timeout = 30 * time.Second
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Boards returns the open boards of the authenticated member.
func (c *TrelloClient) Boards(ctx context.Context) ([]Board, error) {
	var boards []Board
	params := url.Values{"filter": {"open"}, "fields": {"name"}}
	if err := c.do(ctx, http.MethodGet, "list boards", "/members/me/boards", params, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (c *TrelloClient) Board(ctx context.Context, id string) (*Board, error) {
	var b Board
	params := url.Values{"fields": {"name"}}
	if err := c.do(ctx, http.MethodGet, "get board", "/boards/"+url.PathEscape(id), params, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Lists returns the open lists of a board.
func (c *TrelloClient) Lists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	params := url.Values{"filter": {"open"}, "fields": {"name,idBoard"}}
	if err := c.do(ctx, http.MethodGet, "list lists", "/boards/"+url.PathEscape(boardID)+"/lists", params, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *TrelloClient) Cards(ctx context.Context, listID string) ([]Card, error) {
	var cards []Card
	params := url.Values{"fields": {"name,desc,idList"}}
	if err := c.do(ctx, http.MethodGet, "list cards", "/lists/"+url.PathEscape(listID)+"/cards", params, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *TrelloClient) CreateCard(ctx context.Context, listID, name, desc string) (*Card, error) {
	var card Card
	params := url.Values{"idList": {listID}, "name": {name}, "desc": {desc}, "pos": {"bottom"}}
	if err := c.do(ctx, http.MethodPost, "create card", "/cards", params, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *TrelloClient) do(ctx context.Context, method, op, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
