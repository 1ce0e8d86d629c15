// Package board talks to the kanban board that receives new hits and keeps
// it free of duplicate cards.
package board

import (
	"context"
	"fmt"
)

type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type List struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"idBoard,omitempty"`
}

type Card struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	ListID string `json:"idList"`
}

// Client is the subset of a board API this tool needs.
type Client interface {
	Boards(ctx context.Context) ([]Board, error)
	Board(ctx context.Context, id string) (*Board, error)
	Lists(ctx context.Context, boardID string) ([]List, error)
	Cards(ctx context.Context, listID string) ([]Card, error)
	CreateCard(ctx context.Context, listID, name, desc string) (*Card, error)
}

// APIError is a non-success response from the board API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: board api returned %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: board api returned %d", e.Op, e.StatusCode)
}
