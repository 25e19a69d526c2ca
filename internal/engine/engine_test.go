package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"slatelink/internal/faults"
	"slatelink/internal/journal"
	"slatelink/internal/match"
	"slatelink/internal/resolve"
	"slatelink/internal/testsupport"
)

const productionCSV = `Name,Scene,Take,Camera,TC Start,Bin Name
A001_C001,12A,3,A,01:02:03:04,Day1
A001_C002,12A,4,A,01:05:11:19,Day1
A001_C003,14,1,B,02:00:00:00,Day2
`

func newImageFixture(t *testing.T, csv string) (imagePath, tablePath string) {
	t.Helper()
	dir := t.TempDir()
	imagePath = filepath.Join(dir, "A001_C001.jpg")
	tablePath = filepath.Join(dir, "metadata.csv")
	testsupport.WriteImage(t, imagePath, 64, 48)
	testsupport.WriteTable(t, tablePath, csv)
	return imagePath, tablePath
}

func newEngine(t *testing.T, opts ...testsupport.ConfigOption) *Engine {
	t.Helper()
	return New(testsupport.NewConfig(t, opts...), nil, nil)
}

func TestResolveExactMatch(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)

	res, err := eng.Resolve(context.Background(), ResolveRequest{
		ImagePath: imagePath,
		TablePath: tablePath,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Fault != nil {
		t.Fatalf("unexpected blocking fault: %v", res.Fault)
	}
	if res.Match.Outcome != match.OutcomeMatched {
		t.Fatalf("expected a match, got outcome %v (%s)", res.Match.Outcome, res.Match.Reason)
	}
	if res.Match.Method != match.MethodExact || res.Match.Confidence != 1.0 {
		t.Fatalf("expected exact match at confidence 1.0, got %s %.2f",
			res.Match.Method, res.Match.Confidence)
	}
	if res.Match.JoinKey != "Name" {
		t.Fatalf("expected join key Name, got %q", res.Match.JoinKey)
	}
	if res.Match.Row["Scene"] != "12A" || res.Match.Row["Take"] != "3" {
		t.Fatalf("wrong row selected: %v", res.Match.Row)
	}
	// Scene/Take/Camera/TC Start/Bin Name make this a recognized production
	// table, so the dataset default supplies the field order.
	if res.Resolved.OrderSource != resolve.SourceDatasetDefault {
		t.Fatalf("expected dataset order source, got %s", res.Resolved.OrderSource)
	}
	if len(res.Plan.Bar) == 0 {
		t.Fatal("expected bar chips in the overlay plan")
	}
}

func TestResolveLocatesTableNextToImage(t *testing.T) {
	imagePath, _ := newImageFixture(t, productionCSV)
	eng := newEngine(t)

	res, err := eng.Resolve(context.Background(), ResolveRequest{ImagePath: imagePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Base(res.TablePath) != "metadata.csv" {
		t.Fatalf("expected located table, got %q", res.TablePath)
	}
}

func TestExportWritesSidecarAndJournal(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	cfg := testsupport.NewConfig(t, testsupport.WithJournal())
	store := testsupport.MustOpenJournal(t, cfg)
	eng := New(cfg, store, nil)

	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := eng.Export(ctx, res, ""); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	sidecarPath := strings.TrimSuffix(imagePath, ".jpg") + ".xmp"
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	for _, want := range []string{"slx:joinKey", "slx:csvSHA256", "slx:jpegSHA256", "slx:scene"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("sidecar missing %q", want)
		}
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("journal List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(entries))
	}
	if entries[0].SidecarPath != sidecarPath || entries[0].JoinKey != "Name" {
		t.Fatalf("unexpected journal entry %+v", entries[0])
	}
	if len(entries[0].ImageSHA256) != 64 {
		t.Fatalf("expected hex sha256 in journal, got %q", entries[0].ImageSHA256)
	}
}

func TestAmbiguousMatchBlocksExport(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "Slate1.jpg")
	tablePath := filepath.Join(dir, "slates.csv")
	testsupport.WriteImage(t, imagePath, 64, 48)
	testsupport.WriteTable(t, tablePath, "Name,Scene\nSlate1,1\nSlate1,2\nSlate2,3\n")

	eng := newEngine(t)
	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Match.Outcome != match.OutcomeAmbiguous {
		t.Fatalf("expected ambiguous outcome, got %v", res.Match.Outcome)
	}
	if len(res.Match.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %v", res.Match.Candidates)
	}

	err = eng.Export(ctx, res, "")
	if err == nil {
		t.Fatal("expected export to be refused")
	}
	if !faults.BlocksExport(err) {
		t.Fatalf("expected an export-blocking fault, got %v", err)
	}
	if _, statErr := os.Stat(strings.TrimSuffix(imagePath, ".jpg") + ".xmp"); !os.IsNotExist(statErr) {
		t.Fatal("sidecar written despite ambiguous match")
	}
}

func TestUnmatchedImageRefusedWithoutFault(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "Z999_X001.jpg")
	tablePath := filepath.Join(dir, "slates.csv")
	testsupport.WriteImage(t, imagePath, 64, 48)
	testsupport.WriteTable(t, tablePath, "Name,Scene\nA001_C001,1\nA001_C002,2\n")

	eng := newEngine(t)
	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Match.Outcome != match.OutcomeUnmatched {
		t.Fatalf("expected unmatched outcome, got %v", res.Match.Outcome)
	}
	if err := eng.Export(ctx, res, ""); !errors.Is(err, faults.ErrUnmatchedRow) {
		t.Fatalf("expected unmatched-row refusal, got %v", err)
	}
}

func TestStaleTableRefusedAtExport(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)

	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Mutate the table after resolution; the size change alone must be
	// enough to refuse the export.
	testsupport.WriteTable(t, tablePath, productionCSV+"A001_C004,15,2,B,03:00:00:00,Day3\n")

	err = eng.Export(ctx, res, "")
	if !errors.Is(err, faults.ErrStaleSource) {
		t.Fatalf("expected stale-source refusal, got %v", err)
	}
	if _, statErr := os.Stat(strings.TrimSuffix(imagePath, ".jpg") + ".xmp"); !os.IsNotExist(statErr) {
		t.Fatal("sidecar written from stale sources")
	}
}

func TestFailedExportLeavesExistingSidecarIntact(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	sidecarPath := strings.TrimSuffix(imagePath, ".jpg") + ".xmp"
	if err := os.WriteFile(sidecarPath, []byte("prior sidecar bytes"), 0o644); err != nil {
		t.Fatalf("seed sidecar: %v", err)
	}

	// Hold the sidecar lock so the write is refused at the last step.
	held := flock.New(sidecarPath + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire competing lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	eng := newEngine(t)
	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := eng.Export(ctx, res, ""); !errors.Is(err, faults.ErrAtomicWrite) {
		t.Fatalf("expected atomic-write failure, got %v", err)
	}

	got, err := os.ReadFile(sidecarPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(got) != "prior sidecar bytes" {
		t.Fatalf("existing sidecar mutated by failed export: %q", got)
	}
}

func TestCanceledContextAbortsExport(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)

	res, err := eng.Resolve(context.Background(), ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := eng.Export(ctx, res, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(strings.TrimSuffix(imagePath, ".jpg") + ".xmp"); !os.IsNotExist(statErr) {
		t.Fatal("sidecar written despite canceled context")
	}
}

func TestPresetOrderRoundTripsThroughSidecar(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)
	ctx := context.Background()

	preset := &resolve.Layer{
		FieldOrder: []string{"Take", "Scene"},
		Positions: map[string]resolve.Position{
			"Camera": {X: 0.25, Y: 0.75},
		},
	}
	res, err := eng.Resolve(ctx, ResolveRequest{
		ImagePath: imagePath,
		TablePath: tablePath,
		Preset:    preset,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Resolved.OrderSource != resolve.SourcePreset {
		t.Fatalf("expected preset order source, got %s", res.Resolved.OrderSource)
	}
	if err := eng.Export(ctx, res, ""); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// A second resolution without the preset must recover the same layout
	// from the sidecar as a per-image prior.
	again, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if again.Resolved.OrderSource != resolve.SourcePerImagePrior {
		t.Fatalf("expected per-image order source, got %s", again.Resolved.OrderSource)
	}
	if len(again.Resolved.Fields) < 2 || again.Resolved.Fields[0] != "Take" || again.Resolved.Fields[1] != "Scene" {
		t.Fatalf("field order not recovered: %v", again.Resolved.Fields)
	}
	pos, ok := again.Resolved.Positions["Camera"]
	if !ok {
		t.Fatalf("pinned position not recovered: %v", again.Resolved.Positions)
	}
	if pos.X != 0.25 || pos.Y != 0.75 {
		t.Fatalf("pinned position drifted: %+v", pos)
	}
	if again.Resolved.PositionSources["Camera"] != resolve.SourcePerImagePrior {
		t.Fatalf("expected per-image position source, got %s",
			again.Resolved.PositionSources["Camera"])
	}
}

func TestDerivedAnchorNotFrozenIntoSidecar(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Resolved.AnchorSource != resolve.SourceAuto {
		t.Fatalf("expected auto anchor source, got %s", res.Resolved.AnchorSource)
	}
	if err := eng.Export(ctx, res, ""); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// The saliency-chosen corner is recomputable; a later resolution must
	// keep deriving it rather than read it back as a per-image prior.
	again, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if again.Resolved.Anchor != "" {
		t.Fatalf("derived anchor persisted as prior: %q", again.Resolved.Anchor)
	}
	if again.Resolved.AnchorSource != resolve.SourceAuto {
		t.Fatalf("expected auto anchor source after export, got %s", again.Resolved.AnchorSource)
	}
}

func TestDuplicateJoinKeyValuesBlockExport(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "A001_C001.jpg")
	tablePath := filepath.Join(dir, "slates.csv")
	testsupport.WriteImage(t, imagePath, 64, 48)
	testsupport.WriteTable(t, tablePath, "Name,Scene\nA001_C001,1\n,2\nA001_C003,3\n")

	eng := newEngine(t)
	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Fault == nil {
		t.Fatal("expected join-key integrity fault")
	}
	if !errors.Is(res.Fault, faults.ErrJoinKeyIntegrity) {
		t.Fatalf("expected join-key integrity marker, got %v", res.Fault)
	}
	if err := eng.Export(ctx, res, ""); !errors.Is(err, faults.ErrJoinKeyIntegrity) {
		t.Fatalf("expected export refusal on integrity fault, got %v", err)
	}
}

func TestDuplicatesElsewhereBlockExportOfCleanMatch(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "Slate2.jpg")
	tablePath := filepath.Join(dir, "slates.csv")
	testsupport.WriteImage(t, imagePath, 64, 48)
	testsupport.WriteTable(t, tablePath, "Name,Scene\nSlate1,1\nSlate1,2\nSlate2,3\n")

	eng := newEngine(t)
	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// Slate2 itself matches cleanly, but the table's duplicate Slate1 values
	// poison the join key for every export against it.
	if res.Match.Outcome != match.OutcomeMatched {
		t.Fatalf("expected clean match for Slate2, got %v", res.Match.Outcome)
	}
	if err := eng.Export(ctx, res, ""); !errors.Is(err, faults.ErrJoinKeyIntegrity) {
		t.Fatalf("expected join-key integrity refusal, got %v", err)
	}
}

func TestSelectedFieldsRestrictExport(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.Resolve(ctx, ResolveRequest{
		ImagePath:      imagePath,
		TablePath:      tablePath,
		SelectedFields: []string{"scene", "Nonexistent", "TC START"},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Fields) != 2 || res.Fields[0] != "Scene" || res.Fields[1] != "TC Start" {
		t.Fatalf("unexpected selected fields %v", res.Fields)
	}
}

func TestExportTimestampUsesClock(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	eng := New(testsupport.NewConfig(t), nil, nil,
		WithClock(func() time.Time { return fixed }),
		WithIDSource(func() string { return "fixed-instance-id" }))

	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := eng.Export(ctx, res, ""); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(strings.TrimSuffix(imagePath, ".jpg") + ".xmp")
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if !strings.Contains(string(data), "2026-03-14T09:30:00Z") {
		t.Fatal("sidecar missing fixed create date")
	}
	if !strings.Contains(string(data), "fixed-instance-id") {
		t.Fatal("sidecar missing fixed instance id")
	}
}

func TestJournalDisabledIsNoOp(t *testing.T) {
	imagePath, tablePath := newImageFixture(t, productionCSV)
	var store *journal.Store
	eng := New(testsupport.NewConfig(t), store, nil)

	ctx := context.Background()
	res, err := eng.Resolve(ctx, ResolveRequest{ImagePath: imagePath, TablePath: tablePath})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := eng.Export(ctx, res, ""); err != nil {
		t.Fatalf("Export with disabled journal failed: %v", err)
	}
}
