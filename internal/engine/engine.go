package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"slatelink/internal/config"
	"slatelink/internal/faults"
	"slatelink/internal/imaging"
	"slatelink/internal/integrity"
	"slatelink/internal/journal"
	"slatelink/internal/logging"
	"slatelink/internal/match"
	"slatelink/internal/overlay"
	"slatelink/internal/resolve"
	"slatelink/internal/sidecar"
	"slatelink/internal/tabular"
)

// Engine runs the full pipeline: load, match, resolve, lay out, export.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	loader   *tabular.Loader
	matcher  *match.Matcher
	resolver *resolve.Resolver
	policy   *overlay.Policy
	cache    *integrity.Cache
	writer   *sidecar.Writer
	journal  *journal.Store

	now   func() time.Time
	newID func() string
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDSource overrides the sidecar instance-id generator.
func WithIDSource(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithCache substitutes the integrity cache, letting tests count source
// reads.
func WithCache(cache *integrity.Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

// New assembles an engine from configuration. store may be nil (journal
// disabled); a nil logger is replaced with a nop logger.
func New(cfg *config.Config, store *journal.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "engine"),
		loader: tabular.NewLoader(logger),
		matcher: match.NewMatcher(match.Options{
			JoinPriority: cfg.Matching.JoinPriority,
			Threshold:    cfg.Matching.FuzzyThreshold,
			TieMargin:    cfg.Matching.FuzzyTieMargin,
		}, logger),
		resolver: resolve.NewResolver(resolve.ProductionSignature, logger),
		policy:   overlay.NewPolicy(cfg.Overlay, nil, logger),
		cache:    integrity.NewCache(logger),
		writer:   sidecar.NewWriter(logger),
		journal:  store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveRequest names the inputs of one resolution run.
type ResolveRequest struct {
	ImagePath string
	// TablePath overrides table discovery. Empty means locate a table next
	// to the image.
	TablePath string
	// Preset is the active named configuration, nil when none is selected.
	Preset *resolve.Layer
	// SelectedFields restricts the exported fields. Empty means export the
	// resolved field order.
	SelectedFields []string
}

// Resolution is the pipeline state between Resolve and Export.
type Resolution struct {
	ImagePath string
	TablePath string
	Identity  string

	Source   *tabular.Source
	Match    match.Result
	Resolved resolve.Resolved
	Plan     overlay.Plan
	Dims     imaging.Dims

	Fields []string

	ImageSnapshot integrity.Snapshot
	TableSnapshot integrity.Snapshot

	// Fault is the first export-blocking condition found during resolution,
	// nil when the image is exportable.
	Fault error

	Warnings []string
}

// Resolve runs stages one through four: parse the table, match the image's
// identity to a row, reconcile the configuration sources, and lay out the
// overlay. It never fails on blocking data conditions; those are carried on
// the Resolution so status reporting can show them, and Export refuses them.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	res := &Resolution{
		ImagePath: req.ImagePath,
		Identity:  identityOf(req.ImagePath),
	}

	snap, err := integrity.Stat(req.ImagePath)
	if err != nil {
		return nil, err
	}
	res.ImageSnapshot = snap

	tablePath := req.TablePath
	if tablePath == "" {
		located, ok := tabular.Locate(req.ImagePath)
		if !ok {
			return nil, faults.Wrap(faults.ErrMalformedTable, "ingest", "locate table",
				filepath.Dir(req.ImagePath), nil)
		}
		tablePath = located
	}
	res.TablePath = tablePath

	if res.TableSnapshot, err = integrity.Stat(tablePath); err != nil {
		return nil, err
	}

	src, err := e.loader.Load(tablePath)
	if err != nil {
		return nil, err
	}
	res.Source = src
	for _, w := range src.Warnings {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("line %d: %s", w.Line, w.Reason))
	}

	prior, err := sidecar.ReadPrior(sidecar.PathFor(req.ImagePath))
	if err != nil {
		// A damaged prior degrades to no prior; resolution proceeds from
		// the remaining sources.
		e.logger.Warn("ignoring unreadable prior sidecar", logging.Error(err))
		res.Warnings = append(res.Warnings, "prior sidecar unreadable: "+err.Error())
		prior = nil
	}

	res.Resolved = e.resolver.Resolve(src, resolve.Layers{
		PerImagePrior: prior,
		Preset:        req.Preset,
	})

	joinKey := e.joinKey(src, res.Resolved)
	if err := match.ValidateJoinKey(src, joinKey); err != nil {
		res.Fault = err
	}

	res.Match = e.matcher.Match(src, res.Identity, joinKey)
	if res.Match.Outcome == match.OutcomeAmbiguous && res.Fault == nil {
		res.Fault = faults.Wrap(faults.ErrAmbiguousMatch, "match", "select row",
			res.Identity, nil)
	}

	res.Fields = selectedFields(req.SelectedFields, res.Resolved.Fields, src)

	grid, dims, err := imaging.Decode(req.ImagePath)
	if err != nil {
		e.logger.Warn("image decode failed, corner heuristic disabled", logging.Error(err))
		res.Warnings = append(res.Warnings, "image undecodable: "+err.Error())
		grid = nil
	}
	res.Dims = dims

	if res.Match.Outcome == match.OutcomeMatched {
		if grid != nil {
			res.Plan = e.policy.Plan(res.Match.Row, res.Resolved, grid)
		} else {
			res.Plan = e.policy.Plan(res.Match.Row, res.Resolved, nil)
		}
	}

	// Warm the digest cache while the caller inspects the resolution.
	go func() {
		if _, err := e.cache.Records(context.Background(), req.ImagePath, tablePath); err != nil {
			e.logger.Debug("background hash failed", logging.Error(err))
		}
	}()

	e.logger.Info("resolution complete",
		logging.String("image", req.ImagePath),
		logging.String("table", tablePath),
		logging.String("join_key", res.Match.JoinKey),
		logging.String("order_source", res.Resolved.OrderSource.String()),
		logging.Bool("exportable", res.Fault == nil && res.Match.Outcome == match.OutcomeMatched))
	return res, nil
}

// Export verifies source freshness and writes the sidecar for a matched
// resolution. targetPath empty means the deterministic path next to the
// image. The existing sidecar at the target survives every failure.
func (e *Engine) Export(ctx context.Context, res *Resolution, targetPath string) error {
	if res.Fault != nil {
		return res.Fault
	}
	switch res.Match.Outcome {
	case match.OutcomeMatched:
	case match.OutcomeAmbiguous:
		return faults.Wrap(faults.ErrAmbiguousMatch, "export", "refuse", res.Identity, nil)
	default:
		return faults.Wrap(faults.ErrUnmatchedRow, "export", "refuse",
			res.Identity+": "+res.Match.Reason, nil)
	}

	if targetPath == "" {
		targetPath = sidecar.PathFor(res.ImagePath)
	}

	imageSHA, err := e.cache.SHA256(ctx, res.ImagePath)
	if err != nil {
		return err
	}
	tableSHA, err := e.cache.SHA256(ctx, res.TablePath)
	if err != nil {
		return err
	}

	// Re-stat after hashing so a mutation during the hash is still caught.
	if err := integrity.Verify(res.ImageSnapshot); err != nil {
		return err
	}
	if err := integrity.Verify(res.TableSnapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := sidecar.Build(e.sidecarInput(res, imageSHA, tableSHA))
	if err != nil {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "build sidecar", targetPath, err)
	}
	if err := e.writer.Write(targetPath, doc); err != nil {
		return err
	}

	if _, err := e.journal.Record(ctx, journal.Entry{
		ImagePath:     res.ImagePath,
		SidecarPath:   targetPath,
		TablePath:     res.TablePath,
		ImageSHA256:   imageSHA,
		TableSHA256:   tableSHA,
		JoinKey:       res.Match.JoinKey,
		SidecarSchema: sidecar.SchemaVersion,
		CreatedAt:     e.now(),
	}); err != nil {
		// The sidecar is already on disk; a journal failure must not undo
		// the export.
		e.logger.Warn("journal record failed", logging.Error(err))
	}
	return nil
}

func (e *Engine) sidecarInput(res *Resolution, imageSHA, tableSHA string) sidecar.Input {
	fields := make([]sidecar.Field, 0, len(res.Fields))
	for _, name := range res.Fields {
		fields = append(fields, sidecar.Field{Name: name, Value: res.Match.Row[name]})
	}

	in := sidecar.Input{
		ImagePath:   res.ImagePath,
		TablePath:   res.TablePath,
		Fields:      fields,
		JoinKey:     res.Match.JoinKey,
		ImageSHA256: imageSHA,
		TableSHA256: tableSHA,
		CreatedAt:   e.now(),
		InstanceID:  e.newID(),
	}

	// Only user-defined layout survives into the sidecar; derived defaults
	// are recomputable and would otherwise freeze into per-image priors.
	if userDefined(res.Resolved.AnchorSource) {
		in.Anchor = res.Resolved.Anchor
	}
	if userDefined(res.Resolved.OrderSource) {
		in.FieldOrder = res.Resolved.Fields
	}
	for field, pos := range res.Resolved.Positions {
		if !userDefined(res.Resolved.PositionSources[field]) {
			continue
		}
		if in.Positions == nil {
			in.Positions = make(map[string]resolve.Position)
		}
		in.Positions[field] = pos
	}
	return in
}

func userDefined(src resolve.Source) bool {
	return src == resolve.SourcePerImagePrior || src == resolve.SourcePreset
}

// joinKey picks the column rows are matched on: an explicit config override
// wins, then a resolved source, then header-priority detection.
func (e *Engine) joinKey(src *tabular.Source, resolved resolve.Resolved) string {
	if k := e.cfg.Matching.JoinKey; k != "" {
		return k
	}
	if resolved.JoinKey != "" && src.HasHeader(resolved.JoinKey) {
		return resolved.JoinKey
	}
	return e.matcher.DetectJoinKey(src)
}

func selectedFields(requested, resolved []string, src *tabular.Source) []string {
	if len(requested) == 0 {
		return resolved
	}
	fields := make([]string, 0, len(requested))
	for _, name := range requested {
		if canonical, ok := src.HeaderFold(name); ok {
			fields = append(fields, canonical)
		}
	}
	return fields
}

func identityOf(imagePath string) string {
	base := filepath.Base(imagePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
