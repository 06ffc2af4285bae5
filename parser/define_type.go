package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefineType tells a consumer how to interpret a Define's raw value.
type DefineType int

const (
	DefineUnknown DefineType = iota
	DefineMacro
	DefineGuard
	DefineInt
	DefineIntMath
	DefineLong
	DefineLongMath
	DefineFloat
	DefineFloatMath
	DefineDouble
	DefineDoubleMath
	DefineChar
	DefineString
	DefineColor
)

var defineTypeNames = [...]string{
	DefineUnknown:    "unknown",
	DefineMacro:      "macro",
	DefineGuard:      "guard",
	DefineInt:        "int",
	DefineIntMath:    "int_math",
	DefineLong:       "long",
	DefineLongMath:   "long_math",
	DefineFloat:      "float",
	DefineFloatMath:  "float_math",
	DefineDouble:     "double",
	DefineDoubleMath: "double_math",
	DefineChar:       "char",
	DefineString:     "string",
	DefineColor:      "color",
}

// defineTypesUpper maps the upper-case spelling used in dumps to the tag.
var defineTypesUpper = func() map[string]DefineType {
	m := make(map[string]DefineType, len(defineTypeNames))
	for i, name := range defineTypeNames {
		m[strings.ToUpper(name)] = DefineType(i)
	}
	return m
}()

func (t DefineType) String() string {
	if t < 0 || int(t) >= len(defineTypeNames) {
		return fmt.Sprintf("DefineType(%d)", int(t))
	}
	return defineTypeNames[t]
}

// IsMath reports whether the value is an expression rather than a literal.
func (t DefineType) IsMath() bool {
	switch t {
	case DefineIntMath, DefineLongMath, DefineFloatMath, DefineDoubleMath:
		return true
	}
	return false
}

// ParseDefineType matches s against the tag set ignoring case.
func ParseDefineType(s string) (DefineType, error) {
	if isASCII(s) {
		if t, ok := defineTypesUpper[strings.ToUpper(s)]; ok {
			return t, nil
		}
	}
	return DefineUnknown, &Error{
		Kind:   KindUnknownDefineType,
		Offset: -1,
		Detail: fmt.Sprintf("%q is not a define type", s),
	}
}

// isASCII keeps ToUpper from folding look-alike runes such as 'ı' onto tags.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (t DefineType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(defineTypeNames) {
		return nil, fmt.Errorf("invalid define type %d", int(t))
	}
	return []byte(defineTypeNames[t]), nil
}

func (t *DefineType) UnmarshalText(text []byte) error {
	v, err := ParseDefineType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
