package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ardanlabs/apidump/parser"
)

var colorLiteralRe = regexp.MustCompile(`\{([^}]*)\}`)

func (g *Generator) generateDefines() (string, error) {
	var consts, vars bytes.Buffer

	for _, d := range g.api.Defines {
		name := toGoName(d.Name)

		switch d.Type {
		case parser.DefineInt, parser.DefineLong:
			if _, err := strconv.ParseInt(d.Value, 0, 64); err != nil {
				g.skipDefine(d, "value is not an integer literal")
				continue
			}
			writeDoc(&consts, name, d.Description)
			fmt.Fprintf(&consts, "\t%s = %s\n", name, d.Value)

		case parser.DefineFloat, parser.DefineDouble:
			v := strings.TrimRight(d.Value, "fF")
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				g.skipDefine(d, "value is not a float literal")
				continue
			}
			writeDoc(&consts, name, d.Description)
			fmt.Fprintf(&consts, "\t%s = %s\n", name, v)

		case parser.DefineString:
			lit, ok := stringLiteral(d.Value)
			if !ok {
				g.skipDefine(d, "value is not a string literal")
				continue
			}
			writeDoc(&consts, name, d.Description)
			fmt.Fprintf(&consts, "\t%s = %s\n", name, lit)

		case parser.DefineChar:
			if _, _, _, err := strconv.UnquoteChar(strings.Trim(d.Value, "'"), '\''); err != nil || len(d.Value) < 3 {
				g.skipDefine(d, "value is not a character literal")
				continue
			}
			writeDoc(&consts, name, d.Description)
			fmt.Fprintf(&consts, "\t%s = %s\n", name, d.Value)

		case parser.DefineColor:
			lit, ok := g.colorLiteral(d.Value)
			if !ok {
				g.skipDefine(d, "value is not a Color literal")
				continue
			}
			writeDoc(&vars, name, d.Description)
			fmt.Fprintf(&vars, "\t%s = %s\n", name, lit)

		default:
			g.skipDefine(d, "no Go constant form")
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", g.packageName)
	if consts.Len() > 0 {
		fmt.Fprintf(&buf, "const (\n%s)\n\n", consts.String())
	}
	if vars.Len() > 0 {
		fmt.Fprintf(&buf, "var (\n%s)\n", vars.String())
	}

	return buf.String(), nil
}

// stringLiteral keeps a quoted C string as written when Go reads it the same
// way, and quotes a bare value.
func stringLiteral(value string) (string, bool) {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return strconv.Quote(value), true
	}
	if _, err := strconv.Unquote(value); err != nil {
		return "", false
	}
	return value, true
}

// colorLiteral turns "CLITERAL(Color){ 245, 245, 245, 255 }" into a Color
// composite literal when the API declares a Color struct with that many fields.
func (g *Generator) colorLiteral(value string) (string, bool) {
	color, ok := g.structs["Color"]
	if !ok {
		return "", false
	}

	m := colorLiteralRe.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}

	parts := strings.Split(m[1], ",")
	if len(parts) != len(color.Fields) {
		return "", false
	}

	fields := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := strconv.ParseUint(p, 0, 8); err != nil {
			return "", false
		}
		name, _ := parser.SplitArrayName(color.Fields[i].Name)
		fields[i] = fmt.Sprintf("%s: %s", toGoName(name), p)
	}

	return toGoName(color.Name) + "{" + strings.Join(fields, ", ") + "}", true
}

func (g *Generator) skipDefine(d parser.Define, reason string) {
	g.log.Debug("skipping define",
		zap.String("define", d.Name),
		zap.Stringer("type", d.Type),
		zap.String("reason", reason),
	)
}
