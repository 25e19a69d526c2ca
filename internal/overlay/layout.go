package overlay

import (
	"log/slog"
	"strings"

	"slatelink/internal/config"
	"slatelink/internal/logging"
	"slatelink/internal/resolve"
	"slatelink/internal/tabular"
)

// TimecodeSource records which timecode field the bar displays.
type TimecodeSource string

const (
	TimecodeStart TimecodeSource = "start"
	TimecodeEnd   TimecodeSource = "end"
	TimecodeNone  TimecodeSource = "none"
)

// Chip is one rendered metadata value in the compact bar.
type Chip struct {
	Field      string
	Label      string
	Value      string
	Background RGB
	Text       RGB
}

// PinnedChip is a chip anchored at an explicit position instead of the bar.
type PinnedChip struct {
	Chip
	Position resolve.Position
	Source   resolve.Source
}

// Plan is the full render plan for one image: bar chips in display order,
// the bar's corner, and free-pinned chips. No pixels are drawn here; an
// external renderer consumes the plan.
type Plan struct {
	Bar       []Chip
	BarCorner Corner
	// BarCornerAuto is true when the corner came from saliency rather than
	// an explicit anchor.
	BarCornerAuto bool
	Pinned        []PinnedChip
	Timecode      TimecodeSource
	MaxRows       int
}

// Policy turns a resolved configuration and a matched row into a Plan.
type Policy struct {
	cfg    config.Overlay
	scorer CornerScorer
	logger *slog.Logger
}

// NewPolicy builds a layout policy. A nil scorer falls back to the variance
// heuristic; a nil logger is replaced with a nop logger.
func NewPolicy(cfg config.Overlay, scorer CornerScorer, logger *slog.Logger) *Policy {
	if scorer == nil {
		scorer = VarianceScorer{}
	}
	return &Policy{cfg: cfg, scorer: scorer, logger: logging.NewComponentLogger(logger, "overlay")}
}

// Plan lays out the resolved fields against the matched row. Pinned fields
// leave the bar and anchor at their clamped (and optionally grid-snapped)
// positions; at most one timecode chip appears, preferring start over end
// and omitted entirely when both are empty.
func (p *Policy) Plan(row tabular.Row, res resolve.Resolved, grid IntensityGrid) Plan {
	plan := Plan{Timecode: TimecodeNone, MaxRows: p.cfg.MaxRows}

	tcField, tcSource := pickTimecode(row, res)
	plan.Timecode = tcSource

	chipIndex := 0
	for _, field := range res.Fields {
		value := row[field]
		if res.Pinned(field) {
			if value == "" {
				continue
			}
			pos := res.Positions[field]
			if p.cfg.SnapToGrid {
				pos = SnapToGrid(pos, p.cfg.SnapPct, p.cfg.SafeMarginPct)
			} else {
				pos = ClampSafe(pos, p.cfg.SafeMarginPct)
			}
			plan.Pinned = append(plan.Pinned, PinnedChip{
				Chip:     p.chip(chipIndex, field, field, value),
				Position: pos,
				Source:   res.PositionSources[field],
			})
			chipIndex++
			continue
		}

		if kind := timecodeKind(field); kind != "" {
			// Only the chosen timecode field gets a chip; never an empty one.
			if field != tcField {
				continue
			}
			plan.Bar = append(plan.Bar, p.chip(chipIndex, field, "TC", value))
			chipIndex++
			continue
		}

		if value == "" {
			continue
		}
		plan.Bar = append(plan.Bar, p.chip(chipIndex, field, field, value))
		chipIndex++
	}

	if corner, ok := ParseCorner(res.Anchor); ok {
		plan.BarCorner = corner
	} else {
		plan.BarCorner = BestCorner(grid, p.scorer, p.cfg.CornerSizePct)
		plan.BarCornerAuto = true
		p.logger.Debug("bar corner chosen by saliency",
			logging.String("corner", string(plan.BarCorner)))
	}
	return plan
}

func (p *Policy) chip(index int, field, label, value string) Chip {
	background := ChipBackground(index)
	return Chip{
		Field:      field,
		Label:      label,
		Value:      value,
		Background: background,
		Text:       TextColor(background),
	}
}

// pickTimecode selects the single timecode field the bar shows: the first
// non-empty start field among the unpinned selection, else the first
// non-empty end field, else none.
func pickTimecode(row tabular.Row, res resolve.Resolved) (string, TimecodeSource) {
	var endField string
	for _, field := range res.Fields {
		if res.Pinned(field) {
			continue
		}
		kind := timecodeKind(field)
		if kind == "" || strings.TrimSpace(row[field]) == "" {
			continue
		}
		if kind == TimecodeStart {
			return field, TimecodeStart
		}
		if endField == "" {
			endField = field
		}
	}
	if endField != "" {
		return endField, TimecodeEnd
	}
	return "", TimecodeNone
}

func timecodeKind(field string) TimecodeSource {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "tc start", "timecode start", "timecode in":
		return TimecodeStart
	case "tc end", "timecode end", "timecode out":
		return TimecodeEnd
	}
	return ""
}
