package db

import "time"

// Listing is one scraped posting. Href identifies it across runs and is
// stored as the card description on the board.
type Listing struct {
	PostedDate time.Time `json:"posted_date"`
	Title      string    `json:"title"`
	Href       string    `json:"href"`
}

type Run struct {
	ID         string    `json:"id"`
	ConfigPath string    `json:"config_path"`
	BoardName  string    `json:"board_name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Fetched    int       `json:"fetched"`
	Hits       int       `json:"hits"`
	Created    int       `json:"created"`
	DryRun     bool      `json:"dry_run"`
	Status     string    `json:"status"` // running, success, failed
	Error      string    `json:"error,omitempty"`
}

// CardRecord is a card this tool created on a board.
type CardRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	BoardName  string    `json:"board_name"`
	CardID     string    `json:"card_id"`
	Href       string    `json:"href"`
	Title      string    `json:"title"`
	PostedDate time.Time `json:"posted_date"`
	CreatedAt  time.Time `json:"created_at"`
}
