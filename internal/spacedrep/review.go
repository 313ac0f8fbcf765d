package spacedrep

import (
	"fmt"
	"math"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

// ErrInvalidQuality rejects quality ratings outside 0..5 before any
// state changes.
type ErrInvalidQuality struct {
	Quality int
}

func (e *ErrInvalidQuality) Error() string {
	return fmt.Sprintf("quality rating %d outside 0..5", e.Quality)
}

// Review applies one SM-2 review to a card and returns the updated copy.
// Quality is a 0-5 recall rating (5 = effortless, below 3 = failed
// recall). Pure function: no clock reads, no hidden state.
func Review(card Card, quality int, now time.Time, cfg config.SpacedRep) (Card, error) {
	if quality < 0 || quality > 5 {
		return card, &ErrInvalidQuality{Quality: quality}
	}

	q := float64(quality)
	efDelta := 0.1 - (5-q)*(0.08+(5-q)*0.02)
	card.EasinessFactor = math.Max(cfg.MinEasiness, card.EasinessFactor+efDelta)

	if quality < 3 {
		// Failed recall: restart the ladder.
		card.Repetitions = 0
		card.IntervalDays = 1
	} else {
		card.Repetitions++
		switch card.Repetitions {
		case 1:
			card.IntervalDays = 1
		case 2:
			card.IntervalDays = cfg.SecondIntervalDays
		default:
			card.IntervalDays = int(math.Round(float64(card.IntervalDays) * card.EasinessFactor))
		}
		if card.IntervalDays > cfg.MaxIntervalDays {
			card.IntervalDays = cfg.MaxIntervalDays
		}
		card.CorrectReviews++
	}

	card.TotalReviews++
	card.LastReviewedAt = now
	card.NextReviewDate = now.AddDate(0, 0, card.IntervalDays)
	return card, nil
}
