package sidecar

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/beevik/etree"

	"slatelink/internal/resolve"
)

// ReadPrior recovers the per-image layer from an existing sidecar. It is
// deliberately lenient: a missing file yields (nil, nil), and elements written
// by newer or older layouts that this reader does not recognize are skipped
// rather than rejected. Only an unreadable or unparseable file is an error.
func ReadPrior(path string) (*resolve.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read prior sidecar %s: %w", path, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse prior sidecar %s: %w", path, err)
	}

	layer := &resolve.Layer{}
	walk(doc.Root(), func(el *etree.Element) {
		if el.Space != "slx" {
			return
		}
		switch el.Tag {
		case "fieldOrder":
			var order []string
			if json.Unmarshal([]byte(el.Text()), &order) == nil {
				layer.FieldOrder = order
			}
		case "overlayPositions":
			layer.Positions = parsePositions(el.Text())
		case "joinKey":
			layer.JoinKey = el.Text()
		case "overlaySpec":
			applyOverlaySpec(layer, el.Text())
		}
	})

	if len(layer.FieldOrder) == 0 && len(layer.Positions) == 0 &&
		layer.JoinKey == "" && layer.Anchor == "" {
		return nil, nil
	}
	return layer, nil
}

// applyOverlaySpec fills layer slots the dedicated elements did not already
// claim. Older sidecars carry order and positions only inside overlaySpec.
func applyOverlaySpec(layer *resolve.Layer, text string) {
	var spec overlaySpec
	if json.Unmarshal([]byte(text), &spec) != nil {
		return
	}
	layer.Anchor = spec.Anchor
	if len(layer.FieldOrder) == 0 {
		layer.FieldOrder = spec.FieldOrder
	}
	if len(layer.Positions) == 0 && len(spec.Positions) > 0 {
		layer.Positions = pairPositions(spec.Positions)
	}
}

func parsePositions(text string) map[string]resolve.Position {
	var pairs map[string][]float64
	if json.Unmarshal([]byte(text), &pairs) != nil {
		return nil
	}
	return pairPositions(pairs)
}

func pairPositions(pairs map[string][]float64) map[string]resolve.Position {
	if len(pairs) == 0 {
		return nil
	}
	positions := make(map[string]resolve.Position, len(pairs))
	for name, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		positions[name] = resolve.Position{X: pair[0], Y: pair[1]}.Normalize()
	}
	if len(positions) == 0 {
		return nil
	}
	return positions
}

func walk(el *etree.Element, visit func(*etree.Element)) {
	if el == nil {
		return
	}
	visit(el)
	for _, child := range el.ChildElements() {
		walk(child, visit)
	}
}
