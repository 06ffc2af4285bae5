package generator

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/ardanlabs/apidump/parser"
)

// maxAliasDepth stops alias chains that loop back on themselves.
const maxAliasDepth = 8

// maxArrayLen bounds fixed array fields, which are spelled out element by
// element in ffi struct descriptors.
const maxArrayLen = 4096

// resolve follows aliases until ct names a struct, enum, callback or builtin.
func (g *Generator) resolve(ct parser.CType) parser.CType {
	for i := 0; i < maxAliasDepth; i++ {
		target, ok := g.aliases[ct.Name]
		if !ok {
			return ct
		}
		next := parser.ParseCType(target)
		next.PointerDepth += ct.PointerDepth
		next.IsConst = next.IsConst || ct.IsConst
		if ct.IsArray {
			next.IsArray = true
			next.ArraySize = ct.ArraySize
		}
		ct = next
	}
	return ct
}

func (g *Generator) cTypeToGoType(ct parser.CType) string {
	if ct.IsArray {
		elem := ct
		elem.IsArray = false
		elem.ArraySize = 0
		return fmt.Sprintf("[%d]%s", ct.ArraySize, g.cTypeToGoType(elem))
	}

	if ct.PointerDepth == 1 && ct.Name == "char" {
		return "string"
	}

	if ct.IsPointer() {
		if _, ok := g.structs[ct.Name]; ok && ct.PointerDepth == 1 {
			return "*" + toGoName(ct.Name)
		}
		return "uintptr"
	}

	if g.callbacks[ct.Name] {
		return toGoName(ct.Name)
	}

	switch ct.Name {
	case "void":
		return ""
	case "bool", "_Bool":
		return "bool"
	case "char":
		if ct.IsUnsigned {
			return "uint8"
		}
		return "int8"
	case "short":
		if ct.IsUnsigned {
			return "uint16"
		}
		return "int16"
	case "int":
		if ct.IsUnsigned {
			return "uint32"
		}
		return "int32"
	case "long", "long long":
		if ct.IsUnsigned {
			return "uint64"
		}
		return "int64"
	case "int8_t":
		return "int8"
	case "uint8_t":
		return "uint8"
	case "int16_t":
		return "int16"
	case "uint16_t":
		return "uint16"
	case "int32_t":
		return "int32"
	case "uint32_t":
		return "uint32"
	case "int64_t":
		return "int64"
	case "uint64_t":
		return "uint64"
	case "size_t":
		return "uint64"
	case "float":
		return "float32"
	case "double":
		return "float64"
	case "va_list":
		return "uintptr"
	default:
		return toGoName(ct.Name)
	}
}

// cTypeToFFITypes returns the ffi element types of ct, one per array element.
func (g *Generator) cTypeToFFITypes(ct parser.CType) []string {
	if !ct.IsArray {
		return []string{g.cTypeToFFIType(g.resolve(ct))}
	}

	elem := ct
	elem.IsArray = false
	elem.ArraySize = 0
	ffiType := g.cTypeToFFIType(g.resolve(elem))

	types := make([]string, ct.ArraySize)
	for i := range types {
		types[i] = ffiType
	}
	return types
}

func (g *Generator) cTypeToFFIType(ct parser.CType) string {
	if ct.IsPointer() || ct.IsArray || g.callbacks[ct.Name] {
		return "&ffi.TypePointer"
	}

	if g.enums[ct.Name] {
		return "&ffi.TypeSint32"
	}

	switch ct.Name {
	case "void":
		return "&ffi.TypeVoid"
	case "bool", "_Bool":
		return "&ffi.TypeUint8"
	case "char":
		if ct.IsUnsigned {
			return "&ffi.TypeUint8"
		}
		return "&ffi.TypeSint8"
	case "short":
		if ct.IsUnsigned {
			return "&ffi.TypeUint16"
		}
		return "&ffi.TypeSint16"
	case "int":
		if ct.IsUnsigned {
			return "&ffi.TypeUint32"
		}
		return "&ffi.TypeSint32"
	case "long", "long long":
		if ct.IsUnsigned {
			return "&ffi.TypeUint64"
		}
		return "&ffi.TypeSint64"
	case "int8_t":
		return "&ffi.TypeSint8"
	case "uint8_t":
		return "&ffi.TypeUint8"
	case "int16_t":
		return "&ffi.TypeSint16"
	case "uint16_t":
		return "&ffi.TypeUint16"
	case "int32_t":
		return "&ffi.TypeSint32"
	case "uint32_t":
		return "&ffi.TypeUint32"
	case "int64_t":
		return "&ffi.TypeSint64"
	case "uint64_t":
		return "&ffi.TypeUint64"
	case "size_t":
		return "&ffi.TypeUint64"
	case "float":
		return "&ffi.TypeFloat"
	case "double":
		return "&ffi.TypeDouble"
	default:
		if _, ok := g.structs[ct.Name]; ok {
			return "&FFIType" + toGoName(ct.Name)
		}
		return "&ffi.TypePointer"
	}
}

// needsFFIArg reports whether a return value narrower than a register must be
// read through ffi.Arg.
func (g *Generator) needsFFIArg(ct parser.CType) bool {
	if ct.IsPointer() || ct.IsArray || ct.Name == "void" {
		return false
	}
	if g.enums[ct.Name] {
		return true
	}

	switch ct.Name {
	case "int8_t", "uint8_t", "char", "bool", "_Bool":
		return true
	case "int16_t", "uint16_t", "short":
		return true
	case "int32_t", "uint32_t", "int":
		return true
	default:
		return false
	}
}

func isStringType(ct parser.CType) bool {
	return ct.PointerDepth == 1 && ct.Name == "char" && !ct.IsArray
}

var acronyms = map[string]bool{
	"id": true, "url": true, "api": true, "http": true, "json": true, "xml": true,
	"sql": true, "io": true, "ip": true, "tcp": true, "udp": true,
}

// toGoName exports a C identifier. snake_case and SCREAMING_CASE words are
// title-cased; words already in mixed case keep their inner capitals.
func toGoName(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_'
	})

	var result strings.Builder
	for _, part := range parts {
		lower := strings.ToLower(part)
		switch {
		case acronyms[lower]:
			result.WriteString(strings.ToUpper(part))
		case part == lower || part == strings.ToUpper(part):
			result.WriteString(strings.ToUpper(lower[:1]))
			result.WriteString(lower[1:])
		default:
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(part[1:])
		}
	}

	return result.String()
}

func toLowerCamel(name string) string {
	goName := toGoName(name)
	if goName == "" {
		return ""
	}
	runes := []rune(goName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// reservedParams are identifiers the generated wrappers already use.
var reservedParams = map[string]bool{
	"result": true, "resultPtr": true, "lib": true,
	"fmt": true, "unsafe": true, "ffi": true, "unix": true,
}

// toParamName keeps parameter names close to the C source, renaming Go
// keywords and identifiers the wrapper body needs.
func toParamName(name string) string {
	name = toLowerCamel(name)
	if token.IsKeyword(name) || reservedParams[name] {
		return name + "Arg"
	}
	return name
}
