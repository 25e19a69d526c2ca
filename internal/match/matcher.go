package match

import (
	"fmt"
	"log/slog"
	"strings"

	"slatelink/internal/logging"
	"slatelink/internal/tabular"
	"slatelink/internal/textutil"
)

// Options holds the matching policy constants.
type Options struct {
	// JoinPriority ranks identity-like header labels, highest first.
	JoinPriority []string
	// Threshold is the minimum similarity a fuzzy candidate must reach.
	Threshold float64
	// TieMargin is the minimum lead the best fuzzy candidate must hold over
	// the runner-up.
	TieMargin float64
}

// Matcher matches image identities to table rows.
type Matcher struct {
	opts   Options
	logger *slog.Logger
}

// NewMatcher returns a matcher with the given policy. A nil logger is
// replaced with a nop logger.
func NewMatcher(opts Options, logger *slog.Logger) *Matcher {
	return &Matcher{opts: opts, logger: logging.NewComponentLogger(logger, "match")}
}

// DetectJoinKey picks the join-key column: the highest-priority identity-like
// label present in the headers (case-insensitive, exact label), falling back
// to the first column.
func (m *Matcher) DetectJoinKey(src *tabular.Source) string {
	for _, candidate := range m.opts.JoinPriority {
		if header, ok := src.HeaderFold(candidate); ok {
			return header
		}
	}
	if len(src.Headers) > 0 {
		return src.Headers[0]
	}
	return ""
}

// Match resolves identity against the join-key column. Exact matches
// (trimmed, case-insensitive) always win; more than one exact match is
// Ambiguous. Fuzzy matching runs only when no exact match exists and accepts
// the best candidate above the threshold with a clear lead over the runner-up.
func (m *Matcher) Match(src *tabular.Source, identity, joinKey string) Result {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return Result{Outcome: OutcomeUnmatched, JoinKey: joinKey, Reason: "empty image identity"}
	}
	if !src.HasHeader(joinKey) {
		return Result{Outcome: OutcomeUnmatched, JoinKey: joinKey, Reason: fmt.Sprintf("join key %q not in headers", joinKey)}
	}

	var exact []int
	for i, row := range src.Rows {
		if strings.EqualFold(strings.TrimSpace(row[joinKey]), identity) {
			exact = append(exact, i)
		}
	}
	switch {
	case len(exact) == 1:
		return Result{
			Outcome:    OutcomeMatched,
			JoinKey:    joinKey,
			RowIndex:   exact[0],
			Row:        src.Rows[exact[0]],
			Confidence: 1.0,
			Method:     MethodExact,
		}
	case len(exact) > 1:
		m.logger.Warn("ambiguous exact match",
			logging.String("identity", identity),
			logging.Int("candidates", len(exact)))
		return Result{Outcome: OutcomeAmbiguous, JoinKey: joinKey, Candidates: exact}
	}

	return m.fuzzy(src, identity, joinKey)
}

func (m *Matcher) fuzzy(src *tabular.Source, identity, joinKey string) Result {
	bestIndex := -1
	best := 0.0
	second := 0.0
	for i, row := range src.Rows {
		cell := strings.TrimSpace(row[joinKey])
		if cell == "" {
			continue
		}
		score := textutil.Similarity(identity, cell)
		if score > best {
			second = best
			best = score
			bestIndex = i
			continue
		}
		if score > second {
			second = score
		}
	}

	if bestIndex < 0 || best < m.opts.Threshold {
		return Result{
			Outcome: OutcomeUnmatched,
			JoinKey: joinKey,
			Reason:  fmt.Sprintf("best fuzzy score %.2f below threshold %.2f", best, m.opts.Threshold),
		}
	}
	if best-second <= m.opts.TieMargin {
		return Result{
			Outcome: OutcomeUnmatched,
			JoinKey: joinKey,
			Reason:  fmt.Sprintf("fuzzy runner-up within tie margin (%.2f vs %.2f)", best, second),
		}
	}

	m.logger.Debug("fuzzy match accepted",
		logging.String("identity", identity),
		logging.Int("row", bestIndex),
		logging.Float64("score", best))
	return Result{
		Outcome:    OutcomeMatched,
		JoinKey:    joinKey,
		RowIndex:   bestIndex,
		Row:        src.Rows[bestIndex],
		Confidence: best,
		Method:     MethodFuzzy,
	}
}
