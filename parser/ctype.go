package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// CType is a C type string from a dump broken into the parts a binding
// generator cares about.
type CType struct {
	Name         string
	PointerDepth int
	IsConst      bool
	IsUnsigned   bool
	IsArray      bool
	ArraySize    int
}

func (ct CType) IsPointer() bool {
	return ct.PointerDepth > 0
}

var arraySuffixRe = regexp.MustCompile(`\[(\d*)\]\s*$`)

// ParseCType parses type strings such as "const char *", "unsigned int",
// "Vector3[4]" or "struct rAudioBuffer *".
func ParseCType(typeStr string) CType {
	typeStr = strings.TrimSpace(typeStr)

	ct := CType{}

	if m := arraySuffixRe.FindStringSubmatchIndex(typeStr); m != nil {
		ct.IsArray = true
		if m[3] > m[2] {
			ct.ArraySize, _ = strconv.Atoi(typeStr[m[2]:m[3]])
		}
		typeStr = strings.TrimSpace(typeStr[:m[0]])
	}

	ct.PointerDepth = strings.Count(typeStr, "*")
	typeStr = strings.ReplaceAll(typeStr, "*", " ")

	var words []string
	for _, w := range strings.Fields(typeStr) {
		switch w {
		case "const":
			ct.IsConst = true
		case "unsigned":
			ct.IsUnsigned = true
		case "signed", "struct", "enum":
		default:
			words = append(words, w)
		}
	}

	ct.Name = strings.Join(words, " ")
	if ct.Name == "" && ct.IsUnsigned {
		ct.Name = "int"
	}

	return ct
}

// SplitArrayName splits a field name such as "params[4]" into its base name
// and element count. Names without a suffix return a size of 0.
func SplitArrayName(name string) (string, int) {
	m := arraySuffixRe.FindStringSubmatchIndex(name)
	if m == nil {
		return name, 0
	}
	size, _ := strconv.Atoi(name[m[2]:m[3]])
	return strings.TrimSpace(name[:m[0]]), size
}
