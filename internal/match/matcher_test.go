package match

import (
	"errors"
	"testing"

	"slatelink/internal/faults"
	"slatelink/internal/tabular"
)

func testOptions() Options {
	return Options{
		JoinPriority: []string{"Name", "Filename", "File", "Clip Name"},
		Threshold:    0.60,
		TieMargin:    0.05,
	}
}

func sourceFrom(headers []string, cells [][]string) *tabular.Source {
	src := &tabular.Source{Headers: headers}
	for _, record := range cells {
		row := make(tabular.Row, len(headers))
		for i, h := range headers {
			row[h] = record[i]
		}
		src.Rows = append(src.Rows, row)
	}
	return src
}

func TestDetectJoinKeyPriority(t *testing.T) {
	m := NewMatcher(testOptions(), nil)

	src := sourceFrom([]string{"Scene", "filename", "Name"}, nil)
	if got := m.DetectJoinKey(src); got != "Name" {
		t.Fatalf("join key = %q, want Name", got)
	}

	src = sourceFrom([]string{"Scene", "filename"}, nil)
	if got := m.DetectJoinKey(src); got != "filename" {
		t.Fatalf("join key = %q, want case-insensitive filename", got)
	}

	src = sourceFrom([]string{"Scene", "Take"}, nil)
	if got := m.DetectJoinKey(src); got != "Scene" {
		t.Fatalf("join key = %q, want first-column fallback", got)
	}
}

func TestMatchExact(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	src := sourceFrom([]string{"Name", "Scene"}, [][]string{
		{"A001_C001", "12B"},
		{"A001_C002", "12B"},
	})

	result := m.Match(src, "a001_c001", "Name")
	if result.Outcome != OutcomeMatched || result.Method != MethodExact {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.RowIndex != 0 || result.Confidence != 1.0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMatchExactWinsOverFuzzy(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	// Second row is fuzzy-similar to the identity, first is exact.
	src := sourceFrom([]string{"Name"}, [][]string{
		{"Slate1"},
		{"Slate1-Take2"},
	})

	result := m.Match(src, "Slate1", "Name")
	if result.Method != MethodExact || result.RowIndex != 0 {
		t.Fatalf("exact must win over fuzzy: %+v", result)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	src := sourceFrom([]string{"Name"}, [][]string{
		{"Slate1"},
		{"slate1 "},
		{"Slate2"},
	})

	result := m.Match(src, "Slate1", "Name")
	if result.Outcome != OutcomeAmbiguous {
		t.Fatalf("expected ambiguous, got %+v", result)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", result.Candidates)
	}
}

func TestMatchFuzzyAcceptsClearBest(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	src := sourceFrom([]string{"Name"}, [][]string{
		{"MissionImpossible"},
		{"JurassicPark"},
	})

	result := m.Match(src, "Slate57-Take1-MissionImpossible", "Name")
	if result.Outcome != OutcomeMatched || result.Method != MethodFuzzy {
		t.Fatalf("expected fuzzy match, got %+v", result)
	}
	if result.RowIndex != 0 || result.Confidence < 0.6 {
		t.Fatalf("unexpected fuzzy result: %+v", result)
	}
}

func TestMatchFuzzyRejectsTies(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	src := sourceFrom([]string{"Name"}, [][]string{
		{"A001_C0011"},
		{"A001_C0012"},
	})

	result := m.Match(src, "A001_C0013", "Name")
	if result.Outcome != OutcomeUnmatched {
		t.Fatalf("expected unmatched on tie, got %+v", result)
	}
	if result.Reason == "" {
		t.Fatal("unmatched result must carry a reason")
	}
}

func TestMatchFuzzyRejectsBelowThreshold(t *testing.T) {
	m := NewMatcher(testOptions(), nil)
	src := sourceFrom([]string{"Name"}, [][]string{{"ZZ987"}})

	result := m.Match(src, "A001_C001", "Name")
	if result.Outcome != OutcomeUnmatched {
		t.Fatalf("expected unmatched, got %+v", result)
	}
}

func TestValidateJoinKeyCleanTable(t *testing.T) {
	src := sourceFrom([]string{"Name"}, [][]string{{"A001"}, {"A002"}})
	if err := ValidateJoinKey(src, "Name"); err != nil {
		t.Fatalf("expected clean validation, got %v", err)
	}
}

func TestValidateJoinKeyDuplicatesAndMissing(t *testing.T) {
	src := sourceFrom([]string{"Name"}, [][]string{
		{"Slate1"},
		{""},
		{"Slate1"},
		{"Slate2"},
	})

	err := ValidateJoinKey(src, "Name")
	if err == nil {
		t.Fatal("expected validation fault")
	}
	if !errors.Is(err, faults.ErrJoinKeyIntegrity) {
		t.Fatalf("expected join key integrity marker, got %v", err)
	}

	var issues *JoinKeyIssues
	if !errors.As(err, &issues) {
		t.Fatalf("expected JoinKeyIssues, got %T", err)
	}
	if len(issues.MissingRows) != 1 || issues.MissingRows[0] != 2 {
		t.Fatalf("missing rows = %v", issues.MissingRows)
	}
	if rows := issues.Duplicates["slate1"]; len(rows) != 2 {
		t.Fatalf("duplicates = %v", issues.Duplicates)
	}
}

func TestValidateJoinKeyFoldsCaseLikeMatching(t *testing.T) {
	// The matcher treats Slate1 and slate1 as the same identity, so the
	// validator must flag them as duplicates too.
	src := sourceFrom([]string{"Name"}, [][]string{
		{"Slate1"},
		{"slate1"},
		{"Slate2"},
	})

	err := ValidateJoinKey(src, "Name")
	if !errors.Is(err, faults.ErrJoinKeyIntegrity) {
		t.Fatalf("expected join key integrity fault, got %v", err)
	}
	var issues *JoinKeyIssues
	if !errors.As(err, &issues) {
		t.Fatalf("expected JoinKeyIssues, got %T", err)
	}
	if rows := issues.Duplicates["slate1"]; len(rows) != 2 {
		t.Fatalf("duplicates = %v", issues.Duplicates)
	}

	m := NewMatcher(Options{Threshold: 0.6, TieMargin: 0.05}, nil)
	if result := m.Match(src, "slate1", "Name"); result.Outcome != OutcomeAmbiguous {
		t.Fatalf("expected matcher to agree the pair is ambiguous, got %v", result.Outcome)
	}
}
