package board

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestTrello(t *testing.T, handler http.HandlerFunc) *TrelloClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := Credentials{APIKey: "key", APISecret: "secret", OAuthToken: "token", OAuthSecret: "tsecret"}
	return NewTrelloClient(creds, WithBaseURL(srv.URL+"/"))
}

func TestTrelloBoardsSignsRequest(t *testing.T) {
	var gotAuth, gotPath, gotFilter string
	c := newTestTrello(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotFilter = r.URL.Query().Get("filter")
		fmt.Fprint(w, `[{"id":"b1","name":"Free Stuff"},{"id":"b2","name":"Bikes"}]`)
	})

	boards, err := c.Boards(context.Background())
	if err != nil {
		t.Fatalf("Boards: %v", err)
	}
	if len(boards) != 2 || boards[0].ID != "b1" || boards[1].Name != "Bikes" {
		t.Errorf("unexpected boards %+v", boards)
	}
	if gotPath != "/members/me/boards" || gotFilter != "open" {
		t.Errorf("request = %s filter=%s", gotPath, gotFilter)
	}
	if !strings.HasPrefix(gotAuth, "OAuth ") || !strings.Contains(gotAuth, `oauth_consumer_key="key"`) || !strings.Contains(gotAuth, `oauth_token="token"`) {
		t.Errorf("Authorization header not OAuth1 signed: %q", gotAuth)
	}
}

func TestTrelloListsAndCards(t *testing.T) {
	c := newTestTrello(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/boards/b1":
			fmt.Fprint(w, `{"id":"b1","name":"Free Stuff"}`)
		case "/boards/b1/lists":
			fmt.Fprint(w, `[{"id":"l1","name":"Unreviewed Ads","idBoard":"b1"}]`)
		case "/lists/l1/cards":
			fmt.Fprint(w, `[{"id":"c1","name":"2024-01-05 : Couch","desc":"http://x/1","idList":"l1"}]`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	b, err := c.Board(ctx, "b1")
	if err != nil || b.Name != "Free Stuff" {
		t.Fatalf("Board = %+v, %v", b, err)
	}
	lists, err := c.Lists(ctx, "b1")
	if err != nil || len(lists) != 1 || lists[0].BoardID != "b1" {
		t.Fatalf("Lists = %+v, %v", lists, err)
	}
	cards, err := c.Cards(ctx, "l1")
	if err != nil || len(cards) != 1 || cards[0].Desc != "http://x/1" {
		t.Fatalf("Cards = %+v, %v", cards, err)
	}
}

func TestTrelloCreateCard(t *testing.T) {
	var method, idList, name, desc, pos string
	c := newTestTrello(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		q := r.URL.Query()
		idList, name, desc, pos = q.Get("idList"), q.Get("name"), q.Get("desc"), q.Get("pos")
		fmt.Fprintf(w, `{"id":"c9","name":%q,"desc":%q,"idList":%q}`, name, desc, idList)
	})

	card, err := c.CreateCard(context.Background(), "l1", "2024-01-05 : Free Couch", "http://x/1?a=b&c=d")
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if method != http.MethodPost {
		t.Errorf("method = %s, want POST", method)
	}
	if idList != "l1" || name != "2024-01-05 : Free Couch" || desc != "http://x/1?a=b&c=d" || pos != "bottom" {
		t.Errorf("params idList=%q name=%q desc=%q pos=%q", idList, name, desc, pos)
	}
	if card.ID != "c9" || card.ListID != "l1" {
		t.Errorf("unexpected card %+v", card)
	}
}

func TestTrelloAPIError(t *testing.T) {
	c := newTestTrello(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})

	_, err := c.Boards(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Body != "invalid token" || apiErr.Op != "list boards" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestTrelloBadJSON(t *testing.T) {
	c := newTestTrello(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	if _, err := c.Lists(context.Background(), "b1"); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("expected decode error, got %v", err)
	}
}
