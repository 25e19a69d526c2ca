package resolve

// Layer is one source of candidate configuration: a field order, a map of
// pinned-field positions, and an optional join key. Per-image priors and
// presets arrive as Layers from their collaborators; dataset defaults and the
// auto heuristic synthesize them internally.
type Layer struct {
	FieldOrder []string
	Positions  map[string]Position
	JoinKey    string
	// Anchor names the compact bar's corner ("bottom_left", ...). Empty
	// means no explicit anchor; the layout policy then picks one by
	// saliency.
	Anchor string
}

// Layers carries the externally supplied configuration sources, highest
// precedence first. Either pointer may be nil.
type Layers struct {
	// PerImagePrior is recovered from an existing sidecar for this image.
	PerImagePrior *Layer
	// Preset is the active named configuration.
	Preset *Layer
}

func (l *Layer) hasOrder() bool {
	return l != nil && len(l.FieldOrder) > 0
}

func (l *Layer) hasPositions() bool {
	return l != nil && len(l.Positions) > 0
}

func (l *Layer) joinKey() string {
	if l == nil {
		return ""
	}
	return l.JoinKey
}

func (l *Layer) anchor() string {
	if l == nil {
		return ""
	}
	return l.Anchor
}
