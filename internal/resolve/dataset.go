package resolve

import "slatelink/internal/tabular"

// SignatureFunc recognizes a dataset shape from its header set and returns
// the defaults it activates. Implementations must be pure so they can be
// swapped or tuned without touching the resolver.
type SignatureFunc func(src *tabular.Source) (Layer, bool)

// productionCluster is the canonical field order the production signature
// pre-selects, each entry listing accepted header spellings.
var productionCluster = [][]string{
	{"Scene"},
	{"Take"},
	{"Camera"},
	{"TC Start", "Timecode Start", "Timecode In"},
	{"Bin Name", "Episode"},
}

// productionSignatureMinimum is how many cluster slots must be present for
// the dataset defaults to activate.
const productionSignatureMinimum = 3

// identityHeaders are the identity-like columns the signature forces the
// join key to when present, highest priority first.
var identityHeaders = []string{"Name", "Filename", "File", "Clip Name"}

// ProductionSignature recognizes camera-report style metadata: when enough of
// the known production cluster (scene, take, camera, a timecode-start field,
// a bin/episode grouping field) appears in the headers, it pre-selects that
// cluster in canonical order and forces the join key to the identity-like
// column if one exists.
func ProductionSignature(src *tabular.Source) (Layer, bool) {
	var order []string
	for _, spellings := range productionCluster {
		for _, name := range spellings {
			if header, ok := src.HeaderFold(name); ok {
				order = append(order, header)
				break
			}
		}
	}
	if len(order) < productionSignatureMinimum {
		return Layer{}, false
	}

	layer := Layer{FieldOrder: order}
	for _, name := range identityHeaders {
		if header, ok := src.HeaderFold(name); ok {
			layer.JoinKey = header
			break
		}
	}
	return layer, true
}

// autoFields are common production-metadata field names the auto heuristic
// selects when present, in display order.
var autoFields = []string{
	"Scene", "Take", "Camera", "TC Start", "Bin Name", "Episode",
	"Slate", "Roll", "Reel", "Timecode In", "Timecode Start", "Look", "LUT",
}

// autoLayer builds the last-resort heuristic layer from whichever common
// field names the table actually has.
func autoLayer(src *tabular.Source) Layer {
	var order []string
	for _, name := range autoFields {
		if header, ok := src.HeaderFold(name); ok {
			order = append(order, header)
		}
	}
	return Layer{FieldOrder: order}
}
