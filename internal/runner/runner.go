// Package runner drives one scrape, match and sync cycle per target file.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/user/adboard/internal/board"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/db"
	"github.com/user/adboard/internal/matcher"
	"github.com/user/adboard/internal/sources"
)

const lastRunKey = "last_run_at"

// Options configures run behavior
type Options struct {
	DryRun  bool // Compute cards without creating them
	Verbose bool // Show every page and card
	Silent  bool // Suppress all output (for scheduled runs)
}

// Deps are the collaborators of a Runner. Store may be nil, which disables
// the run journal.
type Deps struct {
	Source    sources.Source
	NewClient func(t *config.Target) board.Client
	Store     *db.Store
}

// Summary describes what one target's run did.
type Summary struct {
	RunID   string
	Path    string
	Board   string
	Fetched int
	Hits    int
	Created int
	Skipped int
	DryRun  bool
}

type Runner struct {
	settings *config.Settings
	deps     Deps
	opts     Options
}

func New(settings *config.Settings, deps Deps, opts Options) *Runner {
	return &Runner{settings: settings, deps: deps, opts: opts}
}

// DefaultDeps wires the classifieds source and the Trello client from
// settings.
func DefaultDeps(settings *config.Settings, store *db.Store, opts Options) Deps {
	srcOpts := sources.Options{
		HTTPClient:      &http.Client{Timeout: settings.HTTPTimeout},
		RequestInterval: settings.RequestInterval,
		UserAgent:       settings.UserAgent,
	}
	if opts.Verbose && !opts.Silent {
		srcOpts.OnPage = func(pageURL string, rows int) {
			fmt.Printf("  Fetched %s (%d rows)\n", pageURL, rows)
		}
	}

	return Deps{
		Source: sources.NewClassifiedsSource(srcOpts),
		NewClient: func(t *config.Target) board.Client {
			return NewBoardClient(settings, t)
		},
		Store: store,
	}
}

// NewBoardClient returns a Trello client authenticated with the target's
// credentials.
func NewBoardClient(settings *config.Settings, t *config.Target) board.Client {
	creds := board.Credentials{
		APIKey:      t.APIKey,
		APISecret:   t.APISecret,
		OAuthToken:  t.OAuthToken,
		OAuthSecret: t.OAuthSecret,
	}
	return board.NewTrelloClient(creds, board.WithTimeout(settings.HTTPTimeout))
}

// RunAll processes every target file in order. A failing target does not
// stop the others; all failures are returned joined.
func (r *Runner) RunAll(ctx context.Context, paths []string) error {
	var errs []error
	var total int

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		sum, err := r.RunOne(ctx, path)
		if err != nil {
			if !r.opts.Silent {
				fmt.Printf("Error processing %s: %v\n", path, err)
			}
			errs = append(errs, err)
			continue
		}
		total += sum.Created
	}

	if r.deps.Store != nil {
		if err := r.deps.Store.SetMetadata(lastRunKey, time.Now().Format(time.RFC3339)); err != nil {
			r.warn("could not record run time: %v", err)
		}
	}

	if !r.opts.Silent {
		fmt.Println()
		switch {
		case len(errs) > 0:
			fmt.Printf("%d of %d configs failed.\n", len(errs), len(paths))
		case r.opts.DryRun:
			fmt.Printf("Dry run: %d cards would be created.\n", total)
		default:
			fmt.Println("Trello has been updated.")
		}
	}

	return errors.Join(errs...)
}

// RunOne loads a single target file and syncs its hits to the board.
func (r *Runner) RunOne(ctx context.Context, path string) (*Summary, error) {
	sum := &Summary{Path: path, DryRun: r.opts.DryRun}
	run := r.startRun(path)
	if run != nil {
		sum.RunID = run.ID
	}

	err := r.sync(ctx, path, sum, run)
	r.finishRun(run, sum, err)
	return sum, err
}

func (r *Runner) sync(ctx context.Context, path string, sum *Summary, run *db.Run) error {
	t, err := config.LoadTarget(path)
	if err != nil {
		return err
	}
	sum.Board = t.BoardName

	if !r.opts.Silent {
		fmt.Printf("Processing %s (board %q)...\n", path, t.BoardName)
	}

	// Resolve the board first so a bad name fails before any scraping
	rec := board.NewReconciler(r.deps.NewClient(t))
	target, err := rec.Resolve(ctx, t.BoardName, t.UnreviewedList, t.ReviewedList)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	sum.Board = target.Board.Name

	if !r.opts.Silent {
		fmt.Printf("Fetching listings from %s since %s...\n", r.deps.Source.Name(), t.StartDate.Format("2006-01-02"))
	}
	listings, err := r.deps.Source.Fetch(ctx, t.URL, t.StartDate)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	sum.Fetched = len(listings)

	hits, _ := matcher.Match(listings, t.Terms)
	sum.Hits = len(hits)
	if !r.opts.Silent {
		fmt.Printf("Found %d listings, %d matching [%s]\n", len(listings), len(hits), strings.Join(t.Terms, ", "))
	}

	done := 0
	progress := func() {
		done++
		printProgress(done, len(hits), "Syncing", r.opts.Silent || r.opts.Verbose)
	}

	res, err := rec.Reconcile(ctx, target, hits, board.ReconcileOptions{
		DryRun: r.opts.DryRun,
		OnCreate: func(c board.CreatedCard) {
			if r.opts.Verbose && !r.opts.Silent {
				fmt.Printf("  + %s\n", c.Card.Name)
			}
			r.recordCard(run, target, c)
			progress()
		},
		OnSkip: func(l db.Listing) {
			if r.opts.Verbose && !r.opts.Silent {
				fmt.Printf("  = %s (already on board)\n", l.Href)
			}
			progress()
		},
	})
	if res != nil {
		sum.Created = res.Count()
		sum.Skipped = res.Skipped
	}
	if len(hits) > 0 && !r.opts.Silent && !r.opts.Verbose {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if !r.opts.Silent {
		verb := "Created"
		if r.opts.DryRun {
			verb = "Would create"
		}
		fmt.Printf("%s %d new cards on %s, skipped %d already on the board\n", verb, sum.Created, target.Board.Name, sum.Skipped)
	}
	return nil
}

func (r *Runner) startRun(path string) *db.Run {
	if r.deps.Store == nil {
		return nil
	}
	run := &db.Run{ConfigPath: path, DryRun: r.opts.DryRun}
	if err := r.deps.Store.StartRun(run); err != nil {
		r.warn("could not journal run: %v", err)
		return nil
	}
	return run
}

func (r *Runner) finishRun(run *db.Run, sum *Summary, runErr error) {
	if run == nil {
		return
	}
	run.BoardName = sum.Board
	run.Fetched = sum.Fetched
	run.Hits = sum.Hits
	run.Created = sum.Created
	if err := r.deps.Store.FinishRun(run, runErr); err != nil {
		r.warn("could not journal run: %v", err)
	}
}

// recordCard journals a created card. Dry runs create nothing, so nothing is
// recorded.
func (r *Runner) recordCard(run *db.Run, t *board.Target, c board.CreatedCard) {
	if run == nil || r.opts.DryRun {
		return
	}
	rec := &db.CardRecord{
		RunID:      run.ID,
		BoardName:  t.Board.Name,
		CardID:     c.Card.ID,
		Href:       c.Listing.Href,
		Title:      c.Listing.Title,
		PostedDate: c.Listing.PostedDate,
	}
	if _, err := r.deps.Store.RecordCard(rec); err != nil {
		r.warn("could not journal card %s: %v", c.Listing.Href, err)
	}
}

func (r *Runner) warn(format string, args ...any) {
	if r.opts.Silent {
		return
	}
	fmt.Printf("Warning: "+format+"\n", args...)
}

func printProgress(current, total int, prefix string, silent bool) {
	if silent || total == 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	barWidth := 30
	filled := int(float64(barWidth) * float64(current) / float64(total))

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	fmt.Printf("\r%s [%s] %d/%d (%.0f%%)", prefix, bar, current, total, pct)
}
