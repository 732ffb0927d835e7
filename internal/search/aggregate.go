package search

import (
	"refsearch/internal/reference"
)

// ResultGroup holds all matches for one reference plus derived per-class
// counts. NotFound is set on finalize for references that accumulated no
// matches over a completed traversal.
type ResultGroup struct {
	Reference reference.Token `json:"reference"`
	Matches   []FileMatch     `json:"matches"`
	Counts    map[Class]int   `json:"counts"`
	NotFound  bool            `json:"notFound"`
}

// Aggregator consumes the match-event stream and groups results by
// reference. It is the single logical consumer of a traversal: workers
// publish through the engine's channel and only the aggregator touches
// the result structure, so no locking is needed here.
type Aggregator struct {
	order  []string
	groups map[string]*ResultGroup
	seen   map[string]struct{}
}

// NewAggregator pre-seeds one group per reference so references with zero
// matches still appear (flagged NotFound) after the run.
func NewAggregator(refs []reference.Token) *Aggregator {
	a := &Aggregator{
		groups: make(map[string]*ResultGroup, len(refs)),
		seen:   make(map[string]struct{}),
	}
	for _, ref := range refs {
		if _, dup := a.groups[ref.Key]; dup {
			continue
		}
		a.order = append(a.order, ref.Key)
		a.groups[ref.Key] = &ResultGroup{
			Reference: ref,
			Counts:    make(map[Class]int),
		}
	}
	return a
}

// Add records one match, deduplicating by (reference, path): the same
// entry can be reached twice when matched as part of several scans.
func (a *Aggregator) Add(m FileMatch) {
	group, ok := a.groups[m.Reference.Key]
	if !ok {
		return
	}
	dedupeKey := m.Reference.Key + "\x00" + m.Path
	if _, dup := a.seen[dedupeKey]; dup {
		return
	}
	a.seen[dedupeKey] = struct{}{}
	group.Matches = append(group.Matches, m)
	group.Counts[m.Class]++
}

// Consume drains the match stream until it is closed.
func (a *Aggregator) Consume(matches <-chan FileMatch) {
	for m := range matches {
		a.Add(m)
	}
}

// Groups finalizes and returns the result groups in reference insertion
// order, flagging references with zero matches as NotFound.
func (a *Aggregator) Groups() []ResultGroup {
	out := make([]ResultGroup, 0, len(a.order))
	for _, key := range a.order {
		group := *a.groups[key]
		group.NotFound = len(group.Matches) == 0
		out = append(out, group)
	}
	return out
}

// NotFoundKeys returns the normalized keys of references with no matches.
func NotFoundKeys(groups []ResultGroup) []string {
	var keys []string
	for _, g := range groups {
		if g.NotFound {
			keys = append(keys, g.Reference.Key)
		}
	}
	return keys
}
