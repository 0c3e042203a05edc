package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/iliyamo/score-leaderboard/internal/model"
)

func TestTopEmpty(t *testing.T) {
	f := newLedgerFixture(t)
	f.user(t, "alice") // registered but never played

	got, err := f.board.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("top = %#v, want empty non-nil slice", got)
	}
}

func TestTopRanksByScoreThenSubmissionOrder(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.user(t, "AAA")
	b := f.user(t, "BBB")
	c := f.user(t, "CCC")
	d := f.user(t, "DDD")
	f.submit(t, a, 5)
	f.submit(t, b, 9)
	f.submit(t, c, 7)
	f.submit(t, d, 9)

	got, err := f.board.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []model.LeaderboardEntry{
		{Rank: 1, Username: "BBB", Score: 9},
		{Rank: 2, Username: "DDD", Score: 9},
		{Rank: 3, Username: "CCC", Score: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("top = %+v, want %+v", got, want)
	}
}

func TestTopTieUsesTimeOfCurrentBest(t *testing.T) {
	f := newLedgerFixture(t)
	b := f.user(t, "BBB")
	d := f.user(t, "DDD")
	f.submit(t, b, 5)
	f.submit(t, d, 9)
	f.submit(t, b, 9) // BBB reaches 9 after DDD did

	got, err := f.board.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(got) != 2 || got[0].Username != "DDD" || got[1].Username != "BBB" {
		t.Fatalf("top = %+v, want DDD then BBB", got)
	}
}

func TestTopNonImprovingSubmissionKeepsTiePosition(t *testing.T) {
	f := newLedgerFixture(t)
	b := f.user(t, "BBB")
	d := f.user(t, "DDD")
	f.submit(t, b, 9)
	f.submit(t, d, 9)
	f.submit(t, b, 9) // equal, not a new best

	got, err := f.board.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(got) != 2 || got[0].Username != "BBB" {
		t.Fatalf("top = %+v, want BBB first", got)
	}
}

func TestTopSameInstantTieIsStable(t *testing.T) {
	f := newLedgerFixture(t)
	fixed := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	f.scores.Now = func() time.Time { return fixed }

	b := f.user(t, "BBB")
	d := f.user(t, "DDD")
	f.submit(t, b, 5)
	f.submit(t, d, 9)
	f.submit(t, b, 9) // same instant as DDD's 9, falls back to row id

	for i := 0; i < 3; i++ {
		got, err := f.board.Top(context.Background(), 3)
		if err != nil {
			t.Fatalf("top: %v", err)
		}
		if len(got) != 2 || got[0].Username != "BBB" || got[1].Username != "DDD" {
			t.Fatalf("top #%d = %+v, want BBB then DDD", i, got)
		}
	}
}

func TestTopDefaultsToThree(t *testing.T) {
	f := newLedgerFixture(t)
	for i, name := range []string{"one", "two", "three", "four", "five"} {
		f.submit(t, f.user(t, name), int64(i))
	}
	for _, n := range []int{0, -1} {
		got, err := f.board.Top(context.Background(), n)
		if err != nil {
			t.Fatalf("top(%d): %v", n, err)
		}
		if len(got) != DefaultTopN {
			t.Fatalf("top(%d) len = %d, want %d", n, len(got), DefaultTopN)
		}
		if got[0].Username != "five" {
			t.Fatalf("top(%d) first = %q, want five", n, got[0].Username)
		}
	}
	got, err := f.board.Top(context.Background(), 10)
	if err != nil {
		t.Fatalf("top(10): %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("top(10) len = %d, want 5", len(got))
	}
}
