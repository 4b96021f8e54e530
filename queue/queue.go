// Package queue holds the ordered list of items a session plays through.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidora/vidora/video"
)

var ErrOutOfRange = errors.New("queue index out of range")

// Queue is an ordered list with a current index.
// The index stays in [0, Len()) whenever the queue is non-empty.
// It is not safe for concurrent use.
type Queue struct {
	items []video.Item
	index int
}

// New builds a queue positioned at start, clamped into range.
func New(items []video.Item, start int) *Queue {
	q := &Queue{items: append([]video.Item(nil), items...)}
	if len(q.items) > 0 {
		q.index = max(0, min(start, len(q.items)-1))
	}
	return q
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Index() int {
	return q.index
}

// Items returns a copy of the queued items.
func (q *Queue) Items() []video.Item {
	return append([]video.Item(nil), q.items...)
}

func (q *Queue) Current() mo.Option[video.Item] {
	if len(q.items) == 0 {
		return mo.None[video.Item]()
	}
	return mo.Some(q.items[q.index])
}

func (q *Queue) HasNext() bool {
	return q.index+1 < len(q.items)
}

func (q *Queue) HasPrevious() bool {
	return q.index > 0 && len(q.items) > 0
}

// Next advances and returns the new current item, or None at the end.
// The index does not move past the last item.
func (q *Queue) Next() mo.Option[video.Item] {
	if !q.HasNext() {
		return mo.None[video.Item]()
	}
	q.index++
	return q.Current()
}

// Previous steps back, or returns None at the start.
func (q *Queue) Previous() mo.Option[video.Item] {
	if !q.HasPrevious() {
		return mo.None[video.Item]()
	}
	q.index--
	return q.Current()
}

func (q *Queue) GoTo(i int) (video.Item, error) {
	if i < 0 || i >= len(q.items) {
		return video.Item{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(q.items))
	}
	q.index = i
	return q.items[i], nil
}

// Lookahead returns up to k items after the current one.
func (q *Queue) Lookahead(k int) []video.Item {
	if k <= 0 || !q.HasNext() {
		return nil
	}
	end := min(q.index+1+k, len(q.items))
	return append([]video.Item(nil), q.items[q.index+1:end]...)
}

// Find returns the indices of items whose title fuzzily matches query, best match first.
func (q *Queue) Find(query string) []int {
	titles := lo.Map(q.items, func(item video.Item, _ int) string {
		return strings.ToLower(item.DisplayTitle())
	})

	ranks := fuzzy.RankFindFold(strings.ToLower(query), titles)
	sort.Sort(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) int {
		return r.OriginalIndex
	})
}
