package resolve

import (
	"log/slog"

	"slatelink/internal/logging"
	"slatelink/internal/tabular"
)

// Resolved is the outcome of evaluating the precedence chain once per
// concern. Field order is won wholesale by the first source supplying any
// explicit order; positions are resolved per pinned field independently.
type Resolved struct {
	Fields      []string
	OrderSource Source

	Positions       map[string]Position
	PositionSources map[string]Source

	JoinKey       string
	JoinKeySource Source

	// Anchor is the compact bar's explicit corner, empty when no source
	// supplied one (the layout policy then falls back to saliency).
	Anchor       string
	AnchorSource Source
}

// Pinned reports whether the field has an explicit position and is therefore
// excluded from the compact bar.
func (r *Resolved) Pinned(field string) bool {
	_, ok := r.Positions[field]
	return ok
}

// Resolver reconciles the four competing configuration sources.
type Resolver struct {
	signature SignatureFunc
	logger    *slog.Logger
}

// NewResolver builds a resolver using the given dataset signature. A nil
// signature disables dataset defaults; a nil logger is replaced with a nop
// logger.
func NewResolver(signature SignatureFunc, logger *slog.Logger) *Resolver {
	return &Resolver{signature: signature, logger: logging.NewComponentLogger(logger, "resolve")}
}

// Resolve evaluates the precedence chain
// PerImagePrior -> Preset -> DatasetDefault -> Auto, once per concern.
// Field orders and positions referencing headers the table does not have are
// dropped with a logged notice; resolution itself is all-or-nothing and
// cannot fail.
func (r *Resolver) Resolve(src *tabular.Source, layers Layers) Resolved {
	dataset, datasetOK := Layer{}, false
	if r.signature != nil {
		dataset, datasetOK = r.signature(src)
	}
	auto := autoLayer(src)

	type candidate struct {
		layer  *Layer
		source Source
	}
	chain := []candidate{
		{layers.PerImagePrior, SourcePerImagePrior},
		{layers.Preset, SourcePreset},
	}
	if datasetOK {
		chain = append(chain, candidate{&dataset, SourceDatasetDefault})
	}
	chain = append(chain, candidate{&auto, SourceAuto})

	resolved := Resolved{
		OrderSource:     SourceAuto,
		Positions:       make(map[string]Position),
		PositionSources: make(map[string]Source),
		JoinKeySource:   SourceAuto,
	}

	// Field order: first source with any explicit order wins wholesale.
	for _, c := range chain {
		if !c.layer.hasOrder() {
			continue
		}
		fields := r.knownFields(src, c.layer.FieldOrder, c.source)
		if len(fields) == 0 {
			continue
		}
		resolved.Fields = fields
		resolved.OrderSource = c.source
		break
	}

	// Positions: per pinned field independently; a field's position may come
	// from the prior while another field's comes from the preset.
	for _, c := range chain {
		if !c.layer.hasPositions() {
			continue
		}
		for field, pos := range c.layer.Positions {
			if _, taken := resolved.Positions[field]; taken {
				continue
			}
			if !src.HasHeader(field) {
				r.logger.Info("ignored position for unknown field",
					logging.String("field", field),
					logging.String("source", c.source.String()))
				continue
			}
			resolved.Positions[field] = pos.Normalize()
			resolved.PositionSources[field] = c.source
		}
	}

	// Join key: first source carrying one wins; empty means the matcher
	// auto-detects.
	for _, c := range chain {
		if key := c.layer.joinKey(); key != "" && src.HasHeader(key) {
			resolved.JoinKey = key
			resolved.JoinKeySource = c.source
			break
		}
	}

	// Bar anchor: same first-wins rule.
	resolved.AnchorSource = SourceAuto
	for _, c := range chain {
		if anchor := c.layer.anchor(); anchor != "" {
			resolved.Anchor = anchor
			resolved.AnchorSource = c.source
			break
		}
	}

	return resolved
}

func (r *Resolver) knownFields(src *tabular.Source, fields []string, source Source) []string {
	known := make([]string, 0, len(fields))
	for _, field := range fields {
		if src.HasHeader(field) {
			known = append(known, field)
			continue
		}
		r.logger.Info("ignored unknown field in order",
			logging.String("field", field),
			logging.String("source", source.String()))
	}
	return known
}
