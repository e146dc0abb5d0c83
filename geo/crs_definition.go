package geo

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// definition is the dialect-independent content of a CRS: what remains once
// names, authorities and axis labels are set aside.
type definition struct {
	kind          CRSKind
	datum         string
	semiMajor     float64
	invFlattening float64
	primeMeridian float64
	method        string
	params        map[string]float64
	unit          float64
}

// Parameter and method spellings that differ between WKT1 (OGC and ESRI)
// and WKT2, keyed by their folded form.
var (
	parameterAliases = map[string]string{
		"latitudeofnaturalorigin":       "latitudeoforigin",
		"latitudeofcenter":              "latitudeoforigin",
		"latitudeoffalseorigin":         "latitudeoforigin",
		"longitudeofnaturalorigin":      "centralmeridian",
		"longitudeofcenter":             "centralmeridian",
		"longitudeoffalseorigin":        "centralmeridian",
		"scalefactoratnaturalorigin":    "scalefactor",
		"eastingatfalseorigin":          "falseeasting",
		"northingatfalseorigin":         "falsenorthing",
		"latitudeof1ststandardparallel": "standardparallel1",
		"latitudeof2ndstandardparallel": "standardparallel2",
	}
	methodAliases = map[string]string{
		"lambertconformalconic":              "lambertconformalconic2sp",
		"lambertconicconformal2sp":           "lambertconformalconic2sp",
		"lambertconicconformal1sp":           "lambertconformalconic1sp",
		"albers":                             "albersconicequalarea",
		"albersequalarea":                    "albersconicequalarea",
		"mercator1sp":                        "mercator",
		"popularvisualisationpseudomercator": "mercatorauxiliarysphere",
	}
	// datumNames lists the datums told apart by name. Datums missing here
	// are compared by ellipsoid only.
	datumNames = map[string]string{
		"wgs84":                                  "wgs1984",
		"wgs1984":                                "wgs1984",
		"worldgeodeticsystem1984":                "wgs1984",
		"nad83":                                  "nad1983",
		"nad1983":                                "nad1983",
		"northamerican1983":                      "nad1983",
		"northamericandatum1983":                 "nad1983",
		"nad27":                                  "nad1927",
		"nad1927":                                "nad1927",
		"northamerican1927":                      "nad1927",
		"northamericandatum1927":                 "nad1927",
		"etrs1989":                               "etrs1989",
		"europeanterrestrialreferencesystem1989": "etrs1989",
		"gda1994":                                "gda1994",
		"geocentricdatumofaustralia1994":         "gda1994",
		"gda2020":                                "gda2020",
		"geocentricdatumofaustralia2020":         "gda2020",
	}
	// Parameters a dialect may leave out, with the value they then take.
	parameterDefaults = map[string]float64{"scalefactor": 1}
)

// definitionOf parses wkt into a definition. ok is false when the text does
// not parse or names no ellipsoid.
func definitionOf(wkt string) (d definition, ok bool) {
	if strings.TrimSpace(wkt) == "" {
		return d, false
	}
	root, err := parseWKTNode(wkt)
	if err != nil {
		return d, false
	}
	if kw := root.keyword; (kw == "COMPD_CS" || kw == "COMPOUNDCRS") && len(root.children) > 0 {
		root = root.children[0]
	}
	c, err := ParseWKT(wkt)
	if err != nil {
		return d, false
	}
	d.kind = c.Kind

	ellipsoid := root.find("SPHEROID", "ELLIPSOID")
	if ellipsoid == nil || len(ellipsoid.values) < 2 {
		return d, false
	}
	if datum := root.find("DATUM", "GEODETICDATUM"); datum != nil && len(datum.strings) > 0 {
		d.datum = datumNames[fold(strings.TrimPrefix(datum.strings[0], "D_"))]
	}
	d.semiMajor = parseNumber(ellipsoid.values[0])
	d.invFlattening = parseNumber(ellipsoid.values[1])
	if pm := root.find("PRIMEM", "PRIMEMERIDIAN"); pm != nil && len(pm.values) > 0 {
		d.primeMeridian = parseNumber(pm.values[0])
	}

	if d.kind != CRSProjected {
		return d, true
	}
	d.unit = c.UnitToMetre
	d.params = map[string]float64{}
	holder := root
	if conv := root.child("CONVERSION"); conv != nil {
		holder = conv
	}
	if m := holder.child("PROJECTION", "METHOD"); m != nil && len(m.strings) > 0 {
		d.method = alias(methodAliases, fold(m.strings[0]))
	}
	for _, p := range holder.children {
		if p.keyword != "PARAMETER" || len(p.strings) == 0 || len(p.values) == 0 {
			continue
		}
		d.params[alias(parameterAliases, fold(p.strings[0]))] = parseNumber(p.values[0])
	}
	return d, true
}

func (d definition) equal(o definition) bool {
	if d.kind != o.kind ||
		!closeTo(d.semiMajor, o.semiMajor) ||
		!closeTo(d.invFlattening, o.invFlattening) ||
		!closeTo(d.primeMeridian, o.primeMeridian) {
		return false
	}
	if d.datum != "" && o.datum != "" && d.datum != o.datum {
		return false
	}
	if d.kind != CRSProjected {
		return true
	}
	if d.method != o.method || !closeTo(d.unit, o.unit) {
		return false
	}
	for name := range d.params {
		if !closeTo(d.param(name), o.param(name)) {
			return false
		}
	}
	for name := range o.params {
		if !closeTo(d.param(name), o.param(name)) {
			return false
		}
	}
	return true
}

func (d definition) param(name string) float64 {
	if v, ok := d.params[name]; ok {
		return v
	}
	return parameterDefaults[name]
}

// find returns the first node with one of keywords, searching depth first.
func (n *wktNode) find(keywords ...string) *wktNode {
	for _, child := range n.children {
		for _, kw := range keywords {
			if child.keyword == kw {
				return child
			}
		}
		if found := child.find(keywords...); found != nil {
			return found
		}
	}
	return nil
}

// child returns the first direct child with one of keywords.
func (n *wktNode) child(keywords ...string) *wktNode {
	for _, c := range n.children {
		for _, kw := range keywords {
			if c.keyword == kw {
				return c
			}
		}
	}
	return nil
}

// fold lowercases s and drops everything but letters and digits, so
// "False_Easting" and "False easting" meet.
func fold(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func alias(m map[string]string, s string) string {
	if a, ok := m[s]; ok {
		return a
	}
	return s
}

func parseNumber(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
