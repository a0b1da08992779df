package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
	"github.com/nao1215/prism/internal/model"
)

// RGB is a text or fill color.
type RGB struct {
	R, G, B int
}

// Style is the resolved presentation of one element.
// Zero values mean "not set" so styles can be layered.
type Style struct {
	FontFamily string
	FontSize   float64 // points
	Bold       *bool
	Italic     *bool
	Color      *RGB
	Background *RGB
	Align      string // L, C, R or J
}

// merge returns s overridden by every field set in o.
func (s Style) merge(o Style) Style {
	if o.FontFamily != "" {
		s.FontFamily = o.FontFamily
	}
	if o.FontSize > 0 {
		s.FontSize = o.FontSize
	}
	if o.Bold != nil {
		s.Bold = o.Bold
	}
	if o.Italic != nil {
		s.Italic = o.Italic
	}
	if o.Color != nil {
		s.Color = o.Color
	}
	if o.Background != nil {
		s.Background = o.Background
	}
	if o.Align != "" {
		s.Align = o.Align
	}
	return s
}

// fontStyle returns the fpdf style string: "", "B", "I" or "BI".
func (s Style) fontStyle() string {
	var b strings.Builder
	if s.Bold != nil && *s.Bold {
		b.WriteString("B")
	}
	if s.Italic != nil && *s.Italic {
		b.WriteString("I")
	}
	return b.String()
}

// PageSetup holds the @page rule.
type PageSetup struct {
	// Size is an fpdf page size name: A3, A4, A5, Letter or Legal.
	Size string
	// Landscape rotates the page.
	Landscape bool
	// Margins in millimetres.
	Top, Right, Bottom, Left float64
}

// Stylesheet holds the rules of a CSS subset keyed by selector.
//
// Supported selectors are type selectors (h1), class selectors (.total) and
// type.class. Supported properties are font-family, font-size, font-weight,
// font-style, color, background-color, background and text-align, plus
// size and margin inside @page. Everything else is ignored.
type Stylesheet struct {
	rules map[string]Style
	Page  PageSetup
}

func boolPtr(b bool) *bool { return &b }

// defaultStyles apply before any stylesheet.
var defaultStyles = map[string]Style{
	"body":    {FontFamily: "Helvetica", FontSize: 10.5, Color: &RGB{0, 0, 0}, Align: "L"},
	"h1":      {FontSize: 20, Bold: boolPtr(true)},
	"h2":      {FontSize: 16, Bold: boolPtr(true)},
	"h3":      {FontSize: 13, Bold: boolPtr(true)},
	"h4":      {FontSize: 11, Bold: boolPtr(true)},
	"h5":      {FontSize: 11, Bold: boolPtr(true)},
	"h6":      {FontSize: 11, Bold: boolPtr(true)},
	"caption": {Bold: boolPtr(true)},
	"th":      {FontSize: 9.5, Bold: boolPtr(true), Background: &RGB{230, 230, 230}},
	"td":      {FontSize: 9.5},
	"strong":  {Bold: boolPtr(true)},
	"b":       {Bold: boolPtr(true)},
	"em":      {Italic: boolPtr(true)},
	"i":       {Italic: boolPtr(true)},
}

// NewStylesheet returns a stylesheet with an A4 portrait page and 15mm margins.
func NewStylesheet() *Stylesheet {
	return &Stylesheet{
		rules: make(map[string]Style),
		Page:  PageSetup{Size: "A4", Top: 15, Right: 15, Bottom: 15, Left: 15},
	}
}

// Resolve returns the style of an element with the given tag and classes.
// Font and color properties are inherited from body (and from table for
// cells); backgrounds are not.
func (s *Stylesheet) Resolve(tag string, classes ...string) Style {
	st := defaultStyles["body"].merge(s.rules["body"])
	st.Background = nil
	if tag == "th" || tag == "td" || tag == "caption" {
		inherited := s.rules["table"]
		inherited.Background = nil
		st = st.merge(inherited)
	}
	st = st.merge(defaultStyles[tag]).merge(s.rules[tag])
	for _, c := range classes {
		st = st.merge(s.rules["."+c]).merge(s.rules[tag+"."+c])
	}
	return st
}

// Parse adds the rules of src. Later rules override earlier ones.
// Unknown at-rules and their blocks are skipped.
func (s *Stylesheet) Parse(src string) error {
	sc := scanner.New(src)

	var (
		selector strings.Builder
		targets  []string
		prop     string
		value    []string
		inBlock  bool
		inValue  bool
		skip     int
	)

	flush := func() {
		if prop != "" && len(value) > 0 {
			v := strings.TrimSpace(strings.Join(value, ""))
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			for _, t := range targets {
				s.apply(t, prop, v)
			}
		}
		prop, value, inValue = "", nil, false
	}

	for {
		tok := sc.Next()
		switch tok.Type {
		case scanner.TokenEOF:
			return nil
		case scanner.TokenError:
			return fmt.Errorf("%w: stylesheet line %d column %d: %s", model.ErrRender, tok.Line, tok.Column, tok.Value)
		case scanner.TokenComment, scanner.TokenCDO, scanner.TokenCDC:
			continue
		}

		if skip > 0 {
			if tok.Type == scanner.TokenChar {
				switch tok.Value {
				case "{":
					skip++
				case "}":
					skip--
				}
			}
			continue
		}

		if !inBlock {
			switch {
			case tok.Type == scanner.TokenChar && tok.Value == "{":
				sel := strings.TrimSpace(selector.String())
				selector.Reset()
				if strings.HasPrefix(sel, "@") && !strings.EqualFold(sel, "@page") {
					skip = 1
					continue
				}
				targets = splitSelectors(sel)
				inBlock = true
			case tok.Type == scanner.TokenChar && tok.Value == ";":
				// @import and @charset statements
				selector.Reset()
			default:
				selector.WriteString(tok.Value)
			}
			continue
		}

		switch {
		case tok.Type == scanner.TokenChar && tok.Value == "}":
			flush()
			inBlock = false
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		case tok.Type == scanner.TokenChar && tok.Value == ":" && !inValue:
			inValue = true
		case tok.Type == scanner.TokenS:
			if inValue && len(value) > 0 {
				value = append(value, " ")
			}
		case inValue:
			value = append(value, tok.Value)
		case tok.Type == scanner.TokenIdent:
			prop = strings.ToLower(tok.Value)
		}
	}
}

func splitSelectors(sel string) []string {
	parts := strings.Split(sel, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.Join(strings.Fields(p), " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// apply sets one declaration on selector.
func (s *Stylesheet) apply(selector, prop, value string) {
	if selector == "@page" {
		s.applyPage(prop, value)
		return
	}

	st := s.rules[selector]
	switch prop {
	case "font-family":
		family := strings.Split(value, ",")[0]
		st.FontFamily = strings.Trim(strings.TrimSpace(family), `"'`)
	case "font-size":
		if pt, ok := lengthPt(value); ok {
			st.FontSize = pt
		}
	case "font-weight":
		switch v := strings.ToLower(value); v {
		case "bold", "bolder":
			st.Bold = boolPtr(true)
		case "normal", "lighter":
			st.Bold = boolPtr(false)
		default:
			if n, err := strconv.Atoi(v); err == nil {
				st.Bold = boolPtr(n >= 600)
			}
		}
	case "font-style":
		switch strings.ToLower(value) {
		case "italic", "oblique":
			st.Italic = boolPtr(true)
		case "normal":
			st.Italic = boolPtr(false)
		}
	case "color":
		if c, ok := parseColor(value); ok {
			st.Color = &c
		}
	case "background-color", "background":
		if c, ok := parseColor(value); ok {
			st.Background = &c
		}
	case "text-align":
		switch strings.ToLower(value) {
		case "left", "start":
			st.Align = "L"
		case "center":
			st.Align = "C"
		case "right", "end":
			st.Align = "R"
		case "justify":
			st.Align = "J"
		}
	default:
		return
	}
	s.rules[selector] = st
}

var pageSizes = map[string]string{
	"a3":     "A3",
	"a4":     "A4",
	"a5":     "A5",
	"letter": "Letter",
	"legal":  "Legal",
}

func (s *Stylesheet) applyPage(prop, value string) {
	switch prop {
	case "size":
		for _, f := range strings.Fields(strings.ToLower(value)) {
			switch f {
			case "landscape":
				s.Page.Landscape = true
			case "portrait":
				s.Page.Landscape = false
			default:
				if size, ok := pageSizes[f]; ok {
					s.Page.Size = size
				}
			}
		}
	case "margin":
		var m []float64
		for _, f := range strings.Fields(value) {
			if mm, ok := lengthMM(f); ok {
				m = append(m, mm)
			}
		}
		switch len(m) {
		case 1:
			s.Page.Top, s.Page.Right, s.Page.Bottom, s.Page.Left = m[0], m[0], m[0], m[0]
		case 2:
			s.Page.Top, s.Page.Right, s.Page.Bottom, s.Page.Left = m[0], m[1], m[0], m[1]
		case 3:
			s.Page.Top, s.Page.Right, s.Page.Bottom, s.Page.Left = m[0], m[1], m[2], m[1]
		case 4:
			s.Page.Top, s.Page.Right, s.Page.Bottom, s.Page.Left = m[0], m[1], m[2], m[3]
		}
	case "margin-top", "margin-right", "margin-bottom", "margin-left":
		mm, ok := lengthMM(value)
		if !ok {
			return
		}
		switch prop {
		case "margin-top":
			s.Page.Top = mm
		case "margin-right":
			s.Page.Right = mm
		case "margin-bottom":
			s.Page.Bottom = mm
		default:
			s.Page.Left = mm
		}
	}
}

const mmPerPt = 25.4 / 72

// lengthMM converts a CSS length to millimetres. Bare numbers are pixels.
func lengthMM(v string) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	units := []struct {
		suffix string
		mm     float64
	}{
		{"mm", 1},
		{"cm", 10},
		{"in", 25.4},
		{"pt", mmPerPt},
		{"px", 25.4 / 96},
	}
	for _, u := range units {
		if n, ok := strings.CutSuffix(v, u.suffix); ok {
			f, err := strconv.ParseFloat(n, 64)
			return f * u.mm, err == nil
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	return f * 25.4 / 96, err == nil
}

// lengthPt converts a CSS font size to points. em and rem are relative to
// the default body size.
func lengthPt(v string) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, suffix := range []string{"rem", "em"} {
		if n, ok := strings.CutSuffix(v, suffix); ok {
			f, err := strconv.ParseFloat(n, 64)
			return f * defaultStyles["body"].FontSize, err == nil
		}
	}
	if n, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(n, 64)
		return f / 100 * defaultStyles["body"].FontSize, err == nil
	}
	if n, ok := strings.CutSuffix(v, "pt"); ok {
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	if n, ok := strings.CutSuffix(v, "px"); ok {
		f, err := strconv.ParseFloat(n, 64)
		return f * 0.75, err == nil
	}
	mm, ok := lengthMM(v)
	return mm / mmPerPt, ok
}

var namedColors = map[string]RGB{
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 128, 0},
	"blue":    {0, 0, 255},
	"navy":    {0, 0, 128},
	"gray":    {128, 128, 128},
	"grey":    {128, 128, 128},
	"silver":  {192, 192, 192},
	"maroon":  {128, 0, 0},
	"orange":  {255, 165, 0},
	"teal":    {0, 128, 128},
	"purple":  {128, 0, 128},
	"olive":   {128, 128, 0},
	"yellow":  {255, 255, 0},
	"darkred": {139, 0, 0},
}

// parseColor understands #rgb, #rrggbb, rgb(r, g, b) and a few names.
func parseColor(v string) (RGB, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if c, ok := namedColors[v]; ok {
		return c, true
	}

	if hex, ok := strings.CutPrefix(v, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return RGB{}, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, false
		}
		return RGB{int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff)}, true
	}

	if args, ok := strings.CutPrefix(v, "rgb("); ok {
		parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
		if len(parts) != 3 {
			return RGB{}, false
		}
		var c [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return RGB{}, false
			}
			c[i] = n
		}
		return RGB{c[0], c[1], c[2]}, true
	}
	return RGB{}, false
}
