package ledger

import "github.com/jaam8/vote_tracker/internal/models"

// Fold derives the tally from scratch. The ledger's running tally must
// always equal Fold(l.Records()).
func Fold(records []models.VoteRecord) models.Tally {
	tally := make(models.Tally)
	for _, rec := range records {
		tally[rec.OptionIndex]++
	}
	return tally
}
