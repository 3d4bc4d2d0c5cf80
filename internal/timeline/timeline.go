package timeline

import (
	"time"

	"github.com/jaam8/vote_tracker/internal/models"
)

// BucketWidth is the width of one bucket in milliseconds.
const BucketWidth int64 = 60000

type Bucket struct {
	// Time is the bucket's minute boundary in milliseconds since epoch.
	Time    int64       `json:"time"`
	Votes   map[int]int `json:"votes"`
	Current bool        `json:"current"`
}

func (b Bucket) Total() int {
	total := 0
	for _, count := range b.Votes {
		total += count
	}
	return total
}

type Timeline struct {
	Buckets []Bucket `json:"buckets"`
	// MaxCount is the largest single-option count in any bucket, at least 1.
	MaxCount int `json:"max_count"`
}

// Key truncates a millisecond timestamp to its minute boundary.
func Key(ms int64) int64 {
	q := ms / BucketWidth
	if ms%BucketWidth < 0 {
		q--
	}
	return q * BucketWidth
}

// Build groups records into one bucket per minute from start through now.
// Every minute in range is present. Records outside the range, or for an
// option index not in options, are left out.
func Build(records []models.VoteRecord, options []int, start, now time.Time) Timeline {
	first := Key(start.UnixMilli())
	last := Key(now.UnixMilli())

	known := make(map[int]struct{}, len(options))
	for _, opt := range options {
		known[opt] = struct{}{}
	}

	var buckets []Bucket
	for minute := first; minute <= last; minute += BucketWidth {
		votes := make(map[int]int, len(options))
		for _, opt := range options {
			votes[opt] = 0
		}
		buckets = append(buckets, Bucket{
			Time:    minute,
			Votes:   votes,
			Current: minute == last,
		})
	}

	for _, rec := range records {
		minute := Key(rec.Timestamp)
		if minute < first || minute > last {
			continue
		}
		if _, ok := known[rec.OptionIndex]; !ok {
			continue
		}
		buckets[(minute-first)/BucketWidth].Votes[rec.OptionIndex]++
	}

	maxCount := 1
	for _, b := range buckets {
		for _, count := range b.Votes {
			if count > maxCount {
				maxCount = count
			}
		}
	}

	return Timeline{Buckets: buckets, MaxCount: maxCount}
}

// Scale returns a count's height relative to the timeline-wide maximum, in [0, 1].
func (t Timeline) Scale(count int) float64 {
	if t.MaxCount <= 0 {
		return 0
	}
	return float64(count) / float64(t.MaxCount)
}
