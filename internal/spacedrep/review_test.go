package spacedrep

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testCard() Card {
	return Card{
		LearnerID:      "l1",
		ContentID:      "c1",
		UnitID:         "contracts",
		EasinessFactor: 2.5,
		IntervalDays:   6,
		Repetitions:    2,
		NextReviewDate: testNow,
		LastReviewedAt: testNow.AddDate(0, 0, -6),
	}
}

func TestReview_PerfectRecall(t *testing.T) {
	// ef=2.5, interval=6, reps=2, q=5 -> ef'=2.6, interval'=round(6*2.6)=16, reps'=3
	cfg := config.Default().SpacedRep
	got, err := Review(testCard(), 5, testNow, cfg)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if math.Abs(got.EasinessFactor-2.6) > 0.0001 {
		t.Errorf("easiness = %f, want 2.6", got.EasinessFactor)
	}
	if got.IntervalDays != 16 {
		t.Errorf("interval = %d, want 16", got.IntervalDays)
	}
	if got.Repetitions != 3 {
		t.Errorf("repetitions = %d, want 3", got.Repetitions)
	}
	wantDue := testNow.AddDate(0, 0, 16)
	if !got.NextReviewDate.Equal(wantDue) {
		t.Errorf("next review = %v, want %v", got.NextReviewDate, wantDue)
	}
}

func TestReview_FailedRecallResets(t *testing.T) {
	cfg := config.Default().SpacedRep
	for q := 0; q < 3; q++ {
		card := testCard()
		card.Repetitions = 7
		card.IntervalDays = 120

		got, err := Review(card, q, testNow, cfg)
		if err != nil {
			t.Fatalf("Review(q=%d): %v", q, err)
		}
		if got.Repetitions != 0 {
			t.Errorf("q=%d: repetitions = %d, want 0", q, got.Repetitions)
		}
		if got.IntervalDays != 1 {
			t.Errorf("q=%d: interval = %d, want 1", q, got.IntervalDays)
		}
		if got.CorrectReviews != card.CorrectReviews {
			t.Errorf("q=%d: failed recall should not increment correct reviews", q)
		}
	}
}

func TestReview_EasinessFloor(t *testing.T) {
	cfg := config.Default().SpacedRep
	card := testCard()
	card.EasinessFactor = 1.3

	got, err := Review(card, 0, testNow, cfg)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got.EasinessFactor < 1.3 {
		t.Errorf("easiness = %f, want >= 1.3", got.EasinessFactor)
	}
}

func TestReview_FirstTwoSuccessIntervals(t *testing.T) {
	cfg := config.Default().SpacedRep
	card := NewCard("l1", "c1", "sk1", "torts", testNow.AddDate(0, 0, -1))

	first, err := Review(card, 4, testNow, cfg)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if first.IntervalDays != 1 {
		t.Errorf("first success interval = %d, want 1", first.IntervalDays)
	}

	second, err := Review(first, 4, testNow.AddDate(0, 0, 1), cfg)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if second.IntervalDays != 6 {
		t.Errorf("second success interval = %d, want 6", second.IntervalDays)
	}
}

func TestReview_IntervalMonotonicAndCapped(t *testing.T) {
	cfg := config.Default().SpacedRep
	card := NewCard("l1", "c1", "sk1", "torts", testNow)
	now := testNow

	prev := 0
	for i := 0; i < 25; i++ {
		var err error
		card, err = Review(card, 5, now, cfg)
		if err != nil {
			t.Fatalf("Review: %v", err)
		}
		if card.IntervalDays < prev {
			t.Fatalf("interval decreased across successes: %d -> %d", prev, card.IntervalDays)
		}
		if card.IntervalDays > cfg.MaxIntervalDays {
			t.Fatalf("interval %d exceeds cap %d", card.IntervalDays, cfg.MaxIntervalDays)
		}
		prev = card.IntervalDays
		now = card.NextReviewDate
	}
	if card.IntervalDays != cfg.MaxIntervalDays {
		t.Errorf("after 25 perfect reviews interval = %d, want cap %d", card.IntervalDays, cfg.MaxIntervalDays)
	}
}

func TestReview_InvalidQuality(t *testing.T) {
	cfg := config.Default().SpacedRep
	for _, q := range []int{-1, 6, 100} {
		card := testCard()
		got, err := Review(card, q, testNow, cfg)
		if err == nil {
			t.Fatalf("Review(q=%d): expected error, got nil", q)
		}
		var invalid *ErrInvalidQuality
		if !errors.As(err, &invalid) {
			t.Errorf("Review(q=%d): error %v, want ErrInvalidQuality", q, err)
		}
		if got != card {
			t.Errorf("Review(q=%d): card mutated on validation failure", q)
		}
	}
}
