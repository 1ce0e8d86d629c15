package db

import (
    "errors"
    "os"
    "testing"
    "time"
)

func newTestStore(t *testing.T) *Store {
    t.Helper()
    tmpDir, _ := os.MkdirTemp("", "adboard-test")
    t.Cleanup(func() { os.RemoveAll(tmpDir) })

    store, err := NewStore(tmpDir)
    if err != nil {
        t.Fatalf("Failed to create store: %v", err)
    }
    t.Cleanup(func() { store.Close() })
    return store
}

func TestRunLifecycle(t *testing.T) {
    store := newTestStore(t)

    r := &Run{ConfigPath: "config.yaml", BoardName: "Free Stuff"}
    if err := store.StartRun(r); err != nil {
        t.Fatalf("Failed to start run: %v", err)
    }
    if r.ID == "" {
        t.Fatal("Expected run ID to be assigned")
    }

    got, err := store.GetRun(r.ID)
    if err != nil {
        t.Fatalf("Failed to get run: %v", err)
    }
    if got.Status != "running" {
        t.Errorf("Expected running, got %s", got.Status)
    }

    r.Fetched, r.Hits, r.Created = 10, 3, 2
    if err := store.FinishRun(r, nil); err != nil {
        t.Fatalf("Failed to finish run: %v", err)
    }

    got, _ = store.GetRun(r.ID)
    if got.Status != "success" || got.Fetched != 10 || got.Hits != 3 || got.Created != 2 {
        t.Errorf("Unexpected run after finish: %+v", got)
    }
    if got.FinishedAt.IsZero() {
        t.Error("Expected finished_at to be set")
    }
}

func TestFinishRunFailed(t *testing.T) {
    store := newTestStore(t)

    r := &Run{ConfigPath: "config2.yaml"}
    store.StartRun(r)
    store.FinishRun(r, errors.New("board not found"))

    runs, err := store.ListRuns(10)
    if err != nil {
        t.Fatalf("Failed to list runs: %v", err)
    }
    if len(runs) != 1 {
        t.Fatalf("Expected 1 run, got %d", len(runs))
    }
    if runs[0].Status != "failed" || runs[0].Error != "board not found" {
        t.Errorf("Unexpected failed run: %+v", runs[0])
    }
}

func TestRecordCardReturningNew(t *testing.T) {
    store := newTestStore(t)

    c := &CardRecord{
        RunID:      "run-1",
        BoardName:  "Free Stuff",
        CardID:     "card-1",
        Href:       "https://example.org/1.html",
        Title:      "2024-01-05 : Free Couch",
        PostedDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
    }
    isNew, err := store.RecordCard(c)
    if err != nil {
        t.Fatalf("Failed to record card: %v", err)
    }
    if !isNew {
        t.Error("Expected isNew=true for first record")
    }

    c2 := *c
    c2.ID = ""
    c2.RunID = "run-2"
    isNew, err = store.RecordCard(&c2)
    if err != nil {
        t.Fatalf("Failed to record card: %v", err)
    }
    if isNew {
        t.Error("Expected isNew=false for same board and href")
    }

    // Same href on another board is a separate card
    c3 := *c
    c3.ID = ""
    c3.BoardName = "Bikes"
    isNew, _ = store.RecordCard(&c3)
    if !isNew {
        t.Error("Expected isNew=true for a different board")
    }

    count, _ := store.CountCards()
    if count != 2 {
        t.Errorf("Expected 2 cards, got %d", count)
    }

    cards, err := store.ListCards("Free Stuff", 10)
    if err != nil {
        t.Fatalf("Failed to list cards: %v", err)
    }
    if len(cards) != 1 || cards[0].RunID != "run-2" {
        t.Errorf("Unexpected cards: %+v", cards)
    }
    if !cards[0].PostedDate.Equal(c.PostedDate) {
        t.Errorf("Expected posted date %v, got %v", c.PostedDate, cards[0].PostedDate)
    }
}

func TestRecordCardLookupError(t *testing.T) {
    store := newTestStore(t)
    store.Close()

    isNew, err := store.RecordCard(&CardRecord{RunID: "r", BoardName: "Free Stuff", Href: "https://example.org/1.html"})
    if err == nil {
        t.Fatal("Expected error from a closed store")
    }
    if isNew {
        t.Error("Expected isNew=false on error")
    }
}

func TestSearchCards(t *testing.T) {
    store := newTestStore(t)

    store.RecordCard(&CardRecord{RunID: "r", BoardName: "Free Stuff", Href: "https://example.org/1.html", Title: "2024-01-05 : Free Couch"})
    store.RecordCard(&CardRecord{RunID: "r", BoardName: "Free Stuff", Href: "https://example.org/2.html", Title: "2024-01-04 : Road Bike"})

    got, err := store.SearchCards("couch", 10)
    if err != nil {
        t.Fatalf("Failed to search: %v", err)
    }
    if len(got) != 1 || got[0].Href != "https://example.org/1.html" {
        t.Errorf("Unexpected search result: %+v", got)
    }

    all, _ := store.SearchCards("", 10)
    if len(all) != 2 {
        t.Errorf("Expected empty query to list all cards, got %d", len(all))
    }
}

func TestMetadata(t *testing.T) {
    store := newTestStore(t)

    if v, err := store.GetMetadata("last_run_at"); err != nil || v != "" {
        t.Fatalf("Expected empty metadata, got %q (%v)", v, err)
    }
    store.SetMetadata("last_run_at", "2024-01-05T10:00:00Z")
    if v, _ := store.GetMetadata("last_run_at"); v != "2024-01-05T10:00:00Z" {
        t.Errorf("Unexpected metadata value %q", v)
    }
}
