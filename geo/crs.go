package geo

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// CRSKind classifies a coordinate reference system.
type CRSKind string

const (
	CRSUnknown     CRSKind = ""
	CRSProjected   CRSKind = "projected"
	CRSGeographic  CRSKind = "geographic"
	CRSEngineering CRSKind = "engineering"
)

// CRS describes a coordinate reference system as reported by the dataset.
// The zero value means "no CRS defined".
type CRS struct {
	// WKT is the well-known-text definition as read from the dataset.
	WKT string `json:"wkt,omitempty"`
	// Name is the CRS name, e.g. "WGS 84 / UTM zone 33N".
	Name string `json:"name,omitempty"`
	// Authority is "AUTH:CODE", e.g. "EPSG:32633", when the definition carries one.
	Authority string  `json:"authority,omitempty"`
	Kind      CRSKind `json:"kind,omitempty"`
	// LinearUnit is the axis unit name of a projected system ("metre", "US survey foot").
	LinearUnit string `json:"linear_unit,omitempty"`
	// UnitToMetre converts one LinearUnit into metres. Zero when unknown.
	UnitToMetre float64 `json:"unit_to_metre,omitempty"`
}

// Defined reports whether a CRS was present on the dataset.
func (c CRS) Defined() bool {
	return strings.TrimSpace(c.WKT) != "" || c.Authority != ""
}

// Projected reports whether areas and lengths are meaningful in CRS units.
func (c CRS) Projected() bool { return c.Kind == CRSProjected }

// Metric reports whether the linear unit is the metre.
func (c CRS) Metric() bool {
	return c.Projected() && c.UnitToMetre == 1
}

// Equal reports whether two reference systems are the same. Authority codes
// win when both sides carry one. Otherwise identical WKT matches, and then
// the parsed definitions are compared by ellipsoid, prime meridian,
// projection method, parameters and unit, so OGC and ESRI dialects of one
// system agree. Name and kind are the last resort for unparseable WKT.
func (c CRS) Equal(o CRS) bool {
	if !c.Defined() || !o.Defined() {
		return false
	}
	if c.Authority != "" && o.Authority != "" {
		return strings.EqualFold(c.Authority, o.Authority)
	}
	if c.WKT != "" && o.WKT != "" && normalizeWKT(c.WKT) == normalizeWKT(o.WKT) {
		return true
	}
	a, aok := definitionOf(c.WKT)
	b, bok := definitionOf(o.WKT)
	if aok && bok {
		return a.equal(b)
	}
	return c.Name != "" && c.Name == o.Name && c.Kind == o.Kind && c.LinearUnit == o.LinearUnit
}

func (c CRS) String() string {
	switch {
	case c.Authority != "" && c.Name != "":
		return fmt.Sprintf("%s (%s)", c.Name, c.Authority)
	case c.Authority != "":
		return c.Authority
	case c.Name != "":
		return c.Name
	case c.WKT != "":
		return "custom"
	default:
		return "undefined"
	}
}

func normalizeWKT(s string) string {
	var b strings.Builder
	inQuote := false
	for _, r := range s {
		if r == '"' {
			inQuote = !inQuote
		}
		if !inQuote && unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ParseWKT reads the fields this package cares about from a WKT1 or WKT2
// definition. An empty string yields the zero CRS and no error.
func ParseWKT(wkt string) (CRS, error) {
	if strings.TrimSpace(wkt) == "" {
		return CRS{}, nil
	}
	root, err := parseWKTNode(wkt)
	if err != nil {
		return CRS{}, err
	}

	// A compound system is judged by its horizontal component.
	if kw := root.keyword; kw == "COMPD_CS" || kw == "COMPOUNDCRS" {
		if len(root.children) > 0 {
			root = root.children[0]
		}
	}

	c := CRS{WKT: wkt}
	if len(root.strings) > 0 {
		c.Name = root.strings[0]
	}
	switch root.keyword {
	case "PROJCS", "PROJCRS", "PROJECTEDCRS":
		c.Kind = CRSProjected
	case "GEOGCS", "GEOGCRS", "GEOGRAPHICCRS", "GEODCRS", "GEODETICCRS", "GEOCCS", "BASEGEOGCRS":
		c.Kind = CRSGeographic
	case "LOCAL_CS", "ENGCRS", "ENGINEERINGCRS":
		c.Kind = CRSEngineering
	}

	for _, child := range root.children {
		switch child.keyword {
		case "AUTHORITY", "ID":
			if len(child.strings) >= 1 && len(child.values) >= 1 {
				c.Authority = child.strings[0] + ":" + child.values[len(child.values)-1]
			} else if len(child.strings) >= 2 {
				c.Authority = child.strings[0] + ":" + child.strings[1]
			}
		}
	}

	if c.Kind == CRSProjected || c.Kind == CRSEngineering {
		if u := root.linearUnit(); u != nil {
			if len(u.strings) > 0 {
				c.LinearUnit = u.strings[0]
			}
			if len(u.values) > 0 {
				c.UnitToMetre, _ = strconv.ParseFloat(u.values[0], 64)
			}
		}
	}
	return c, nil
}

type wktNode struct {
	keyword  string
	strings  []string
	values   []string
	children []*wktNode
}

// linearUnit finds the unit node of a projected CS: a direct UNIT/LENGTHUNIT
// child (WKT1 and WKT2 CS-level) or the unit of the first AXIS (WKT2).
func (n *wktNode) linearUnit() *wktNode {
	for _, child := range n.children {
		if child.keyword == "UNIT" || child.keyword == "LENGTHUNIT" {
			return child
		}
	}
	for _, child := range n.children {
		if child.keyword != "AXIS" {
			continue
		}
		for _, g := range child.children {
			if g.keyword == "LENGTHUNIT" || g.keyword == "UNIT" {
				return g
			}
		}
	}
	return nil
}

type wktParser struct {
	src string
	pos int
}

func parseWKTNode(src string) (*wktNode, error) {
	p := &wktParser{src: src}
	n, err := p.node()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("wkt: trailing data at offset %d", p.pos)
	}
	return n, nil
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *wktParser) node() (*wktNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && (isKeywordByte(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("wkt: expected keyword at offset %d", p.pos)
	}
	n := &wktNode{keyword: strings.ToUpper(p.src[start:p.pos])}

	p.skipSpace()
	if p.pos >= len(p.src) || (p.src[p.pos] != '[' && p.src[p.pos] != '(') {
		// Bare keywords appear as enum values, e.g. AXIS["x",EAST].
		return n, nil
	}
	closer := byte(']')
	if p.src[p.pos] == '(' {
		closer = ')'
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("wkt: unterminated %s", n.keyword)
		}
		switch c := p.src[p.pos]; {
		case c == closer:
			p.pos++
			return n, nil
		case c == ',':
			p.pos++
		case c == '"':
			s, err := p.quoted()
			if err != nil {
				return nil, err
			}
			n.strings = append(n.strings, s)
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			n.values = append(n.values, p.number())
		default:
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
	}
}

func (p *wktParser) quoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		// "" is an escaped quote.
		if p.pos < len(p.src) && p.src[p.pos] == '"' {
			b.WriteByte('"')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("wkt: unterminated string")
}

func (p *wktParser) number() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func isKeywordByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
