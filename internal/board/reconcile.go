package board

import (
	"context"
	"fmt"

	"github.com/user/adboard/internal/db"
)

// Target is a resolved board with its two tracked lists.
type Target struct {
	Board      Board
	Unreviewed List
	Reviewed   List
}

type ReconcileOptions struct {
	DryRun bool // decide which cards to create without creating them
	// OnCreate is called after each card is created (or would be, in a dry run)
	OnCreate func(CreatedCard)
	// OnSkip is called for hits already on the board
	OnSkip func(db.Listing)
}

type CreatedCard struct {
	Listing db.Listing
	Card    Card
}

type Result struct {
	Created []CreatedCard
	Skipped int
	DryRun  bool
}

// Count is the number of cards created by the run.
func (r *Result) Count() int {
	return len(r.Created)
}

// Reconciler mirrors new hits onto a board as cards in the unreviewed list.
// Cards already on the board are never modified.
type Reconciler struct {
	client Client
}

func NewReconciler(client Client) *Reconciler {
	return &Reconciler{client: client}
}

// Resolve looks up the board and both lists by name. Any miss or ambiguous
// name is an error.
func (r *Reconciler) Resolve(ctx context.Context, boardName, unreviewedName, reviewedName string) (*Target, error) {
	boards, err := r.client.Boards(ctx)
	if err != nil {
		return nil, err
	}
	found, err := FindBoard(boards, boardName)
	if err != nil {
		return nil, err
	}

	b, err := r.client.Board(ctx, found.ID)
	if err != nil {
		return nil, err
	}

	lists, err := r.client.Lists(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	unreviewed, err := FindList(lists, unreviewedName)
	if err != nil {
		return nil, err
	}
	reviewed, err := FindList(lists, reviewedName)
	if err != nil {
		return nil, err
	}

	return &Target{Board: *b, Unreviewed: unreviewed, Reviewed: reviewed}, nil
}

// Reconcile creates a card in the unreviewed list for every hit whose href is
// not already the description of a card in either tracked list. The result is
// returned even on error so callers can report what was created before the
// failure.
func (r *Reconciler) Reconcile(ctx context.Context, t *Target, hits []db.Listing, opts ReconcileOptions) (*Result, error) {
	res := &Result{DryRun: opts.DryRun}

	seen, err := r.seenKeys(ctx, t)
	if err != nil {
		return res, err
	}

	for _, hit := range hits {
		if _, ok := seen[hit.Href]; ok {
			res.Skipped++
			if opts.OnSkip != nil {
				opts.OnSkip(hit)
			}
			continue
		}

		name := CardName(hit)
		card := Card{Name: name, Desc: hit.Href, ListID: t.Unreviewed.ID}
		if !opts.DryRun {
			created, err := r.client.CreateCard(ctx, t.Unreviewed.ID, name, hit.Href)
			if err != nil {
				return res, fmt.Errorf("create card for %s: %w", hit.Href, err)
			}
			card = *created
		}

		// Two hits sharing an href must not produce two cards
		seen[hit.Href] = struct{}{}

		c := CreatedCard{Listing: hit, Card: card}
		res.Created = append(res.Created, c)
		if opts.OnCreate != nil {
			opts.OnCreate(c)
		}
	}

	return res, nil
}

// seenKeys collects card descriptions from both tracked lists, fetched once
// per run.
func (r *Reconciler) seenKeys(ctx context.Context, t *Target) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	for _, l := range []List{t.Unreviewed, t.Reviewed} {
		cards, err := r.client.Cards(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			seen[c.Desc] = struct{}{}
		}
	}
	return seen, nil
}

// CardName formats the card title for a listing as "<date> : <title>".
func CardName(l db.Listing) string {
	return fmt.Sprintf("%s : %s", l.PostedDate.Format("2006-01-02"), l.Title)
}
