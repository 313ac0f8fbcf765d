package session

import "github.com/abhisek/jurisprep/internal/config"

// PhaseFor buckets days-to-written-exam into a study phase. Ratios shift
// from mostly-new toward mostly-review as the exam nears: unconsolidated
// new material is worth less and less relative to keeping learned
// material alive.
func PhaseFor(daysToWritten int, cfg config.Session) config.Phase {
	switch {
	case daysToWritten > cfg.FoundationAboveDays:
		return cfg.Foundation
	case daysToWritten > cfg.IntensiveAboveDays:
		return cfg.Intensive
	case daysToWritten > cfg.RevisionAboveDays:
		return cfg.Revision
	default:
		return cfg.Final
	}
}
