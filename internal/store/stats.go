package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// NewContextSince scans closed issues closed after t and reports the
// aggregate bytes (result+comments), the non-routine signals raised,
// and the slugs involved. Used by the adaptive planning threshold to
// decide whether a preemptive plan is warranted.
func (s *Store) NewContextSince(t time.Time) (*types.NewContext, error) {
	entries, err := os.ReadDir(s.path(closedDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &types.NewContext{}, nil
		}
		return nil, err
	}

	ctx := &types.NewContext{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := s.closedIssueDir(e.Name())
		issue, err := s.readIssueDir(dir, e.Name(), types.StatusClosed)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logf("skipping unreadable closed issue in context scan", "slug", e.Name(), "error", err)
			continue
		}
		if issue.ClosedAt == nil || !issue.ClosedAt.After(t) {
			continue
		}
		ctx.Bytes += fileSize(dir, resultFile) + fileSize(dir, commentsFile)
		if issue.Signal != "" && issue.Signal != types.SignalRoutine {
			ctx.Signals = append(ctx.Signals, issue.Signal)
		}
		ctx.Issues = append(ctx.Issues, issue.Slug)
	}
	return ctx, nil
}

// ExpansionStats returns per-type and overall expansion-ratio
// statistics: ratio = (result_bytes+comments_bytes)/body_bytes per
// closed issue, aggregated into count/median/P75/total. Issues with
// zero body bytes are excluded to avoid dividing by zero.
func (s *Store) ExpansionStats() ([]types.ExpansionStat, error) {
	entries, err := os.ReadDir(s.path(closedDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	byType := map[string][]float64{}
	var overall []float64

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := s.closedIssueDir(e.Name())
		issue, err := s.readIssueDir(dir, e.Name(), types.StatusClosed)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logf("skipping unreadable closed issue in expansion scan", "slug", e.Name(), "error", err)
			continue
		}
		bodyBytes := float64(len(issue.Body))
		if bodyBytes == 0 {
			continue
		}
		resultAndComments := float64(fileSize(dir, resultFile) + fileSize(dir, commentsFile))
		ratio := resultAndComments / bodyBytes
		byType[issue.Type] = append(byType[issue.Type], ratio)
		overall = append(overall, ratio)
	}

	types_ := make([]string, 0, len(byType))
	for t := range byType {
		types_ = append(types_, t)
	}
	sort.Strings(types_)

	stats := make([]types.ExpansionStat, 0, len(types_)+1)
	for _, t := range types_ {
		stats = append(stats, summarize(t, byType[t]))
	}
	if len(overall) > 0 {
		stats = append(stats, summarize("", overall))
	}
	return stats, nil
}

func summarize(typ string, ratios []float64) types.ExpansionStat {
	sorted := append([]float64(nil), ratios...)
	sort.Float64s(sorted)
	var total float64
	for _, r := range sorted {
		total += r
	}
	return types.ExpansionStat{
		Type:   typ,
		Count:  len(sorted),
		Median: percentile(sorted, 0.5),
		P75:    percentile(sorted, 0.75),
		Total:  total,
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// RecentClosedGroup is one epoch's worth of closed issues returned by
// RecentClosed.
type RecentClosedGroup struct {
	Epoch  int
	Issues []*types.Issue
}

// RecentClosed walks closed issues newest-first (by closed_at, ties
// broken by epoch) and accumulates until the cumulative body+result+
// comments bytes reach minBytes, grouping the result by epoch.
func (s *Store) RecentClosed(minBytes int64) ([]RecentClosedGroup, error) {
	entries, err := os.ReadDir(s.path(closedDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var issues []*types.Issue
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := s.closedIssueDir(e.Name())
		issue, err := s.readIssueDir(dir, e.Name(), types.StatusClosed)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logf("skipping unreadable closed issue in recent-closed scan", "slug", e.Name(), "error", err)
			continue
		}
		issues = append(issues, issue)
	}

	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		at, bt := time.Time{}, time.Time{}
		if a.ClosedAt != nil {
			at = *a.ClosedAt
		}
		if b.ClosedAt != nil {
			bt = *b.ClosedAt
		}
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.Epoch > b.Epoch
	})

	groups := map[int]*RecentClosedGroup{}
	var order []int
	var acc int64
	for _, issue := range issues {
		if acc >= minBytes {
			break
		}
		g, ok := groups[issue.Epoch]
		if !ok {
			g = &RecentClosedGroup{Epoch: issue.Epoch}
			groups[issue.Epoch] = g
			order = append(order, issue.Epoch)
		}
		g.Issues = append(g.Issues, issue)
		dir := s.closedIssueDir(issue.Slug)
		acc += int64(len(issue.Body)) + fileSize(dir, resultFile) + fileSize(dir, commentsFile)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	result := make([]RecentClosedGroup, 0, len(order))
	for _, e := range order {
		result = append(result, *groups[e])
	}
	return result, nil
}

func fileSize(dir, name string) int64 {
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil {
		return 0
	}
	return info.Size()
}
