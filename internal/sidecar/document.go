package sidecar

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/beevik/etree"

	"slatelink/internal/resolve"
)

// XMP namespace URIs written into every sidecar.
const (
	nsX     = "adobe:ns:meta/"
	nsRDF   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsXMP   = "http://ns.adobe.com/xap/1.0/"
	nsDC    = "http://purl.org/dc/elements/1.1/"
	nsXMPMM = "http://ns.adobe.com/xap/1.0/mm/"
	nsStRef = "http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
	nsIPTC  = "http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/"
	nsSLX   = "http://solvx.uk/ns/slx/1.0/"
)

const (
	creatorTool = "SlateLink 0.2.0"

	// SchemaVersion marks the sidecar layout generation. Readers treat an
	// absent marker as version 0 and simply skip features they do not
	// recognize.
	SchemaVersion = 1
)

// Field is one selected table column carried into the sidecar, value
// preserved exactly as parsed.
type Field struct {
	Name  string
	Value string
}

// Input collects everything a sidecar document records about one export.
type Input struct {
	ImagePath string
	TablePath string

	Fields  []Field
	JoinKey string

	// FieldOrder and Positions are written only when user-defined; older
	// readers that predate them ignore the elements entirely.
	FieldOrder []string
	Positions  map[string]resolve.Position
	Anchor     string

	ImageSHA256 string
	TableSHA256 string

	CreatedAt  time.Time
	InstanceID string
}

type overlaySpec struct {
	Anchor     string               `json:"anchor"`
	FieldOrder []string             `json:"field_order"`
	Positions  map[string][]float64 `json:"overlay_positions"`
}

// NormalizeFieldName converts an arbitrary column header to a lowerCamelCase
// XML-safe element name. An empty result falls back to "field".
func NormalizeFieldName(name string) string {
	var cleaned strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			cleaned.WriteRune(r)
		case unicode.IsSpace(r), r == '_':
			cleaned.WriteRune(' ')
		}
	}
	parts := strings.Fields(cleaned.String())
	if len(parts) == 0 {
		return "field"
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// Build assembles the XMP document for one export.
func Build(in Input) (*etree.Document, error) {
	if in.ImagePath == "" {
		return nil, fmt.Errorf("sidecar input missing image path")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateProcInst("xpacket", "begin=\"\uFEFF\" id=\"W5M0MpCehiHzreSzNTczkc9d\"")

	root := doc.CreateElement("x:xmpmeta")
	root.CreateAttr("xmlns:x", nsX)
	rdf := root.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", nsRDF)

	desc := rdf.CreateElement("rdf:Description")
	desc.CreateAttr("rdf:about", "")
	desc.CreateAttr("xmlns:xmp", nsXMP)
	desc.CreateAttr("xmlns:dc", nsDC)
	desc.CreateAttr("xmlns:xmpMM", nsXMPMM)
	desc.CreateAttr("xmlns:stRef", nsStRef)
	desc.CreateAttr("xmlns:iptc", nsIPTC)
	desc.CreateAttr("xmlns:slx", nsSLX)

	addStandardFields(desc, in)
	addFieldValues(desc, in)
	if err := addCustomMetadata(desc, in); err != nil {
		return nil, err
	}

	doc.CreateProcInst("xpacket", `end="w"`)
	doc.Indent(2)
	return doc, nil
}

func addStandardFields(desc *etree.Element, in Input) {
	desc.CreateElement("xmp:CreatorTool").SetText(creatorTool)
	desc.CreateElement("xmp:CreateDate").SetText(in.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))

	derived := desc.CreateElement("xmpMM:DerivedFrom")
	derived.CreateElement("stRef:filePath").SetText(filepath.Base(in.ImagePath))
	derived.CreateElement("stRef:documentID").SetText("sha256:" + in.ImageSHA256)
	derived.CreateElement("stRef:instanceID").SetText(in.InstanceID)
}

// addFieldValues writes each selected field, mirroring well-known headers
// into their standard namespaces alongside the slx copy.
func addFieldValues(desc *etree.Element, in Input) {
	for _, f := range in.Fields {
		normalized := NormalizeFieldName(f.Name)
		switch strings.ToLower(strings.TrimSpace(f.Name)) {
		case "creator", "byline":
			desc.CreateElement("iptc:Creator").SetText(f.Value)
			desc.CreateElement("slx:" + normalized).SetText(f.Value)
		case "copyright":
			langAlt(desc, "dc:rights", f.Value)
		case "description", "notes":
			langAlt(desc, "dc:description", f.Value)
			desc.CreateElement("slx:" + normalized).SetText(f.Value)
		case "title", "slate":
			langAlt(desc, "dc:title", f.Value)
		default:
			desc.CreateElement("slx:" + normalized).SetText(f.Value)
		}
	}
}

func langAlt(desc *etree.Element, tag, value string) {
	alt := desc.CreateElement(tag).CreateElement("rdf:Alt")
	li := alt.CreateElement("rdf:li")
	li.CreateAttr("xml:lang", "x-default")
	li.SetText(value)
}

func addCustomMetadata(desc *etree.Element, in Input) error {
	desc.CreateElement("slx:csvFileName").SetText(filepath.Base(in.TablePath))
	desc.CreateElement("slx:csvSHA256").SetText("sha256:" + in.TableSHA256)
	desc.CreateElement("slx:jpegSHA256").SetText("sha256:" + in.ImageSHA256)
	desc.CreateElement("slx:joinKey").SetText(in.JoinKey)
	desc.CreateElement("slx:schemaVersion").SetText(fmt.Sprintf("%d", SchemaVersion))

	fieldMap := make(map[string]string, len(in.Fields))
	for _, f := range in.Fields {
		fieldMap[f.Name] = NormalizeFieldName(f.Name)
	}
	mapJSON, err := json.Marshal(fieldMap)
	if err != nil {
		return fmt.Errorf("marshal field map: %w", err)
	}
	desc.CreateElement("slx:fieldMap").SetText(string(mapJSON))

	bag := desc.CreateElement("slx:selectedFields").CreateElement("rdf:Bag")
	for _, f := range in.Fields {
		bag.CreateElement("rdf:li").SetText(f.Name)
	}

	spec := overlaySpec{
		Anchor:     in.Anchor,
		FieldOrder: in.FieldOrder,
		Positions:  positionPairs(in.Positions),
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal overlay spec: %w", err)
	}
	desc.CreateElement("slx:overlaySpec").SetText(string(specJSON))

	if len(in.FieldOrder) > 0 {
		orderJSON, err := json.Marshal(in.FieldOrder)
		if err != nil {
			return fmt.Errorf("marshal field order: %w", err)
		}
		desc.CreateElement("slx:fieldOrder").SetText(string(orderJSON))
	}
	if len(in.Positions) > 0 {
		posJSON, err := json.Marshal(positionPairs(in.Positions))
		if err != nil {
			return fmt.Errorf("marshal overlay positions: %w", err)
		}
		desc.CreateElement("slx:overlayPositions").SetText(string(posJSON))
	}
	return nil
}

func positionPairs(positions map[string]resolve.Position) map[string][]float64 {
	if len(positions) == 0 {
		return nil
	}
	pairs := make(map[string][]float64, len(positions))
	for name, pos := range positions {
		p := pos.Normalize()
		pairs[name] = []float64{p.X, p.Y}
	}
	return pairs
}
