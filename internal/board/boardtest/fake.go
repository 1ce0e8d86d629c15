// Package boardtest provides an in-memory board.Client for tests.
package boardtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/adboard/internal/board"
)

// Fake is an in-memory board. Set the Err fields to make the matching
// operation fail.
type Fake struct {
	mu     sync.Mutex
	boards []board.Board
	lists  map[string][]board.List // by board id
	cards  map[string][]board.Card // by list id
	nextID int

	CreateCalls int

	BoardsErr error
	CardsErr  error
	CreateErr error
}

func NewFake() *Fake {
	return &Fake{
		lists: make(map[string][]board.List),
		cards: make(map[string][]board.Card),
	}
}

// AddBoard adds a board with the given lists and returns the board id.
func (f *Fake) AddBoard(name string, lists ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.newID("board")
	f.boards = append(f.boards, board.Board{ID: id, Name: name})
	for _, l := range lists {
		f.lists[id] = append(f.lists[id], board.List{ID: f.newID("list"), Name: l, BoardID: id})
	}
	return id
}

// ListID returns the id of the named list on the named board.
func (f *Fake) ListID(boardName, listName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.boards {
		if b.Name != boardName {
			continue
		}
		for _, l := range f.lists[b.ID] {
			if l.Name == listName {
				return l.ID
			}
		}
	}
	return ""
}

// AddCard places an existing card in a list.
func (f *Fake) AddCard(listID, name, desc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[listID] = append(f.cards[listID], board.Card{ID: f.newID("card"), Name: name, Desc: desc, ListID: listID})
}

// CardsIn returns a copy of the cards in a list.
func (f *Fake) CardsIn(listID string) []board.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Card(nil), f.cards[listID]...)
}

func (f *Fake) Boards(ctx context.Context) ([]board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BoardsErr != nil {
		return nil, f.BoardsErr
	}
	return append([]board.Board(nil), f.boards...), nil
}

func (f *Fake) Board(ctx context.Context, id string) (*board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.boards {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, &board.APIError{Op: "get board", StatusCode: 404}
}

func (f *Fake) Lists(ctx context.Context, boardID string) ([]board.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.List(nil), f.lists[boardID]...), nil
}

func (f *Fake) Cards(ctx context.Context, listID string) ([]board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CardsErr != nil {
		return nil, f.CardsErr
	}
	return append([]board.Card(nil), f.cards[listID]...), nil
}

func (f *Fake) CreateCard(ctx context.Context, listID, name, desc string) (*board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	c := board.Card{ID: f.newID("card"), Name: name, Desc: desc, ListID: listID}
	f.cards[listID] = append(f.cards[listID], c)
	return &c, nil
}

func (f *Fake) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}
