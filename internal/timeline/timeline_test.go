package timeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var options = []int{0, 1, 2}

func at(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"zero", 0, 0},
		{"inside minute", 119999, 60000},
		{"on boundary", 120000, 120000},
		{"negative", -1, -60000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestBuildBucketCount(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		now   int64
	}{
		{"same minute", 1_700_000_010_000, 1_700_000_050_000},
		{"two minutes apart aligned", 1_700_000_040_000, 1_700_000_160_000},
		{"two minutes apart crossing", 1_700_000_059_000, 1_700_000_179_000},
		{"ten minutes", 1_700_000_000_000 - 600_000, 1_700_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Build(nil, options, at(tt.start), at(tt.now))
			want := tt.now/BucketWidth - tt.start/BucketWidth + 1
			require.Len(t, tl.Buckets, int(want))
			for i := 1; i < len(tl.Buckets); i++ {
				require.Equal(t, BucketWidth, tl.Buckets[i].Time-tl.Buckets[i-1].Time)
			}
			require.True(t, tl.Buckets[len(tl.Buckets)-1].Current)
			require.Equal(t, 1, tl.MaxCount)
		})
	}
}

func TestBuildEmptyPollLastTwoMinutes(t *testing.T) {
	now := time.Now()
	tl := Build(nil, options, now.Add(-2*time.Minute), now)

	require.Contains(t, []int{2, 3}, len(tl.Buckets))
	require.Equal(t, 1, tl.MaxCount)
	for _, b := range tl.Buckets {
		require.Len(t, b.Votes, 3)
		require.Zero(t, b.Total())
	}
}

func TestBuildCountsAndFilters(t *testing.T) {
	start := int64(1_700_000_040_000) // minute 1_700_000_040_000
	now := start + 3*BucketWidth

	records := []models.VoteRecord{
		{OptionIndex: 0, Timestamp: start + 1},
		{OptionIndex: 0, Timestamp: start + 2},
		{OptionIndex: 1, Timestamp: start + 3},
		{OptionIndex: 2, Timestamp: start + 2*BucketWidth},
		{OptionIndex: 1, Timestamp: start - 1},             // before range
		{OptionIndex: 1, Timestamp: now + BucketWidth},     // after range
		{OptionIndex: 7, Timestamp: start + BucketWidth},   // unknown option
		{OptionIndex: 0, Timestamp: start + BucketWidth*3}, // current minute
	}
	tl := Build(records, options, at(start), at(now))

	require.Len(t, tl.Buckets, 4)
	require.Equal(t, map[int]int{0: 2, 1: 1, 2: 0}, tl.Buckets[0].Votes)
	require.Equal(t, map[int]int{0: 0, 1: 0, 2: 0}, tl.Buckets[1].Votes)
	require.Equal(t, map[int]int{0: 0, 1: 0, 2: 1}, tl.Buckets[2].Votes)
	require.Equal(t, map[int]int{0: 1, 1: 0, 2: 0}, tl.Buckets[3].Votes)
	require.Equal(t, 2, tl.MaxCount)
	require.InDelta(t, 0.5, tl.Scale(1), 1e-9)

	total := 0
	for _, b := range tl.Buckets {
		total += b.Total()
	}
	require.Equal(t, 4, total)
}

func TestBuildUnorderedRecords(t *testing.T) {
	start := int64(1_700_000_040_000)
	now := start + BucketWidth
	a := []models.VoteRecord{
		{OptionIndex: 1, Timestamp: now},
		{OptionIndex: 0, Timestamp: start},
		{OptionIndex: 1, Timestamp: start + 10},
	}
	b := []models.VoteRecord{a[2], a[0], a[1]}
	require.Equal(t, Build(a, options, at(start), at(now)), Build(b, options, at(start), at(now)))
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, now.Add(-10*time.Minute), Window{Span: 10 * time.Minute}.StartAt(now))

	fixed := now.Add(-time.Hour)
	require.Equal(t, fixed, Window{Start: fixed, Span: time.Minute}.StartAt(now))

	// a fixed start older than MaxSpan slides, keeping the bucket count bounded
	old := now.Add(-90 * 24 * time.Hour)
	require.Equal(t, now.Add(-MaxSpan), Window{Start: old, Span: time.Minute}.StartAt(now))
	tl := Build(nil, []int{0, 1}, Window{Start: old, Span: time.Minute}.StartAt(now), now)
	require.Len(t, tl.Buckets, int(MaxSpan/time.Minute)+1)
}

func TestWindowValidate(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{"sliding", Window{Span: 10 * time.Minute}, false},
		{"full day", Window{Span: MaxSpan}, false},
		{"recent start", Window{Start: now.Add(-time.Hour), Span: time.Minute}, false},
		{"no span", Window{}, true},
		{"span too long", Window{Span: 2 * MaxSpan}, true},
		{"start too old", Window{Start: now.Add(-30 * 24 * time.Hour), Span: time.Minute}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate(now)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

type fakeSource struct {
	mu      sync.Mutex
	records []models.VoteRecord
	changed chan struct{}
}

func (f *fakeSource) Records() []models.VoteRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.VoteRecord(nil), f.records...)
}

func (f *fakeSource) Changed() <-chan struct{} {
	return f.changed
}

func (f *fakeSource) add(rec models.VoteRecord) {
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
	f.changed <- struct{}{}
}

func TestRefresherRebuildsOnChange(t *testing.T) {
	src := &fakeSource{changed: make(chan struct{}, 1)}
	r := NewRefresher(src, options, Window{Span: 5 * time.Minute}, zap.NewNop())
	require.Equal(t, 0, countVotes(r.Current()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	src.add(models.VoteRecord{OptionIndex: 1, Timestamp: time.Now().UnixMilli()})
	require.Eventually(t, func() bool {
		return countVotes(r.Current()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func countVotes(tl Timeline) int {
	total := 0
	for _, b := range tl.Buckets {
		total += b.Total()
	}
	return total
}
