package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/ardanlabs/apidump/parser"
)

type Option func(*Generator)

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

type Generator struct {
	packageName string
	libName     string
	api         *parser.API
	log         *zap.Logger

	structs   map[string]*parser.Struct
	enums     map[string]bool
	aliases   map[string]string
	callbacks map[string]bool
}

func New(packageName, libName string, api *parser.API, opts ...Option) *Generator {
	g := &Generator{
		packageName: packageName,
		libName:     libName,
		api:         api,
		log:         zap.NewNop(),
		structs:     make(map[string]*parser.Struct, len(api.Structs)),
		enums:       make(map[string]bool, len(api.Enums)),
		aliases:     make(map[string]string, len(api.Aliases)),
		callbacks:   make(map[string]bool, len(api.Callbacks)),
	}
	for _, opt := range opts {
		opt(g)
	}

	for i := range api.Structs {
		g.structs[api.Structs[i].Name] = &api.Structs[i]
	}
	for _, e := range api.Enums {
		g.enums[e.Name] = true
	}
	for _, a := range api.Aliases {
		g.aliases[a.Name] = a.Type
	}
	for _, cb := range api.Callbacks {
		g.callbacks[cb.Name] = true
	}

	return g
}

func (g *Generator) Generate() (map[string]string, error) {
	files := make(map[string]string)

	steps := []struct {
		file string
		gen  func() (string, error)
	}{
		{"loader.go", g.generateLoader},
		{"types.go", g.generateTypes},
		{"defines.go", g.generateDefines},
		{"functions.go", g.generateFunctions},
	}

	for _, step := range steps {
		code, err := step.gen()
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", step.file, err)
		}

		formatted, err := format.Source([]byte(code))
		if err != nil {
			return nil, fmt.Errorf("formatting %s: %w", step.file, err)
		}
		files[step.file] = string(formatted)

		g.log.Debug("generated file", zap.String("file", step.file), zap.Int("bytes", len(formatted)))
	}

	return files, nil
}

func (g *Generator) generateLoader() (string, error) {
	tmpl := `package {{.Package}}

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/jupiterrider/ffi"
)

var lib ffi.Lib

func Load(path string) error {
	var err error
	lib, err = ffi.Load(getLibraryPath(path))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	if err := loadFuncs(); err != nil {
		return err
	}

	return nil
}

func getLibraryPath(basePath string) string {
	var filename string
	switch runtime.GOOS {
	case "linux", "freebsd":
		filename = "lib{{.LibName}}.so"
	case "darwin":
		filename = "lib{{.LibName}}.dylib"
	case "windows":
		filename = "{{.LibName}}.dll"
	default:
		filename = "lib{{.LibName}}.so"
	}
	return filepath.Join(basePath, filename)
}
`

	t, err := template.New("loader").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, map[string]string{
		"Package": g.packageName,
		"LibName": g.libName,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (g *Generator) generateTypes() (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "package %s\n\n", g.packageName)
	fmt.Fprintf(&buf, "import \"github.com/jupiterrider/ffi\"\n\n")
	fmt.Fprintf(&buf, "var _ = ffi.TypeVoid\n\n")

	for _, a := range g.api.Aliases {
		writeDoc(&buf, toGoName(a.Name), a.Description)
		fmt.Fprintf(&buf, "type %s = %s\n\n", toGoName(a.Name), g.cTypeToGoType(parser.ParseCType(a.Type)))
	}

	for _, cb := range g.api.Callbacks {
		writeDoc(&buf, toGoName(cb.Name), cb.Description)
		fmt.Fprintf(&buf, "type %s uintptr\n\n", toGoName(cb.Name))
	}

	for _, s := range g.api.Structs {
		for _, f := range s.Fields {
			if _, ct := fieldType(f); ct.IsArray && ct.ArraySize > maxArrayLen {
				return "", fmt.Errorf("struct %s: field %s: array of %d elements exceeds %d", s.Name, f.Name, ct.ArraySize, maxArrayLen)
			}
		}

		writeDoc(&buf, toGoName(s.Name), s.Description)
		fmt.Fprintf(&buf, "type %s struct {\n", toGoName(s.Name))
		for _, f := range s.Fields {
			name, ct := fieldType(f)
			fmt.Fprintf(&buf, "\t%s %s", toGoName(name), g.cTypeToGoType(ct))
			if f.Description != "" {
				fmt.Fprintf(&buf, " // %s", oneLine(f.Description))
			}
			fmt.Fprintf(&buf, "\n")
		}
		fmt.Fprintf(&buf, "}\n\n")

		fmt.Fprintf(&buf, "var FFIType%s = ffi.NewType(\n", toGoName(s.Name))
		for _, f := range s.Fields {
			_, ct := fieldType(f)
			for _, ffiType := range g.cTypeToFFITypes(ct) {
				fmt.Fprintf(&buf, "\t%s,\n", ffiType)
			}
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	for _, e := range g.api.Enums {
		writeDoc(&buf, toGoName(e.Name), e.Description)
		fmt.Fprintf(&buf, "type %s int32\n\n", toGoName(e.Name))
		if len(e.Values) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "const (\n")
		for i, v := range e.Values {
			switch {
			case v.Value != "":
				fmt.Fprintf(&buf, "\t%s %s = %s", toGoName(v.Name), toGoName(e.Name), v.Value)
			case i == 0:
				fmt.Fprintf(&buf, "\t%s %s = iota", toGoName(v.Name), toGoName(e.Name))
			default:
				fmt.Fprintf(&buf, "\t%s", toGoName(v.Name))
			}
			if v.Description != "" {
				fmt.Fprintf(&buf, " // %s", oneLine(v.Description))
			}
			fmt.Fprintf(&buf, "\n")
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	return buf.String(), nil
}

// fieldType folds an array suffix on the field name ("m[4]") into its type.
func fieldType(f parser.Field) (string, parser.CType) {
	ct := parser.ParseCType(f.Type)
	name, size := parser.SplitArrayName(f.Name)
	if size > 0 {
		ct.IsArray = true
		ct.ArraySize = size
	}
	return name, ct
}

func (g *Generator) generateFunctions() (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "package %s\n\n", g.packageName)
	fmt.Fprintf(&buf, "import (\n")
	fmt.Fprintf(&buf, "\t\"fmt\"\n")
	fmt.Fprintf(&buf, "\t\"unsafe\"\n\n")
	fmt.Fprintf(&buf, "\t\"github.com/jupiterrider/ffi\"\n")
	fmt.Fprintf(&buf, "\t\"golang.org/x/sys/unix\"\n")
	fmt.Fprintf(&buf, ")\n\n")

	fmt.Fprintf(&buf, "var _ = unix.BytePtrFromString\n")
	fmt.Fprintf(&buf, "var _ = unsafe.Pointer(nil)\n\n")

	if len(g.api.Functions) > 0 {
		fmt.Fprintf(&buf, "var (\n")
		for _, fn := range g.api.Functions {
			fmt.Fprintf(&buf, "\t%s ffi.Fun\n", funcVarName(fn.Name))
		}
		fmt.Fprintf(&buf, ")\n\n")
	}

	fmt.Fprintf(&buf, "func loadFuncs() error {\n")
	if len(g.api.Functions) > 0 {
		fmt.Fprintf(&buf, "\tvar err error\n\n")
	}

	for _, fn := range g.api.Functions {
		retFFI := g.cTypeToFFIType(g.resolve(parser.ParseCType(fn.ReturnType)))

		var argFFIs []string
		for _, p := range g.params(fn) {
			argFFIs = append(argFFIs, g.cTypeToFFIType(p.ct))
		}

		if len(argFFIs) == 0 {
			fmt.Fprintf(&buf, "\tif %s, err = lib.Prep(\"%s\", %s); err != nil {\n",
				funcVarName(fn.Name), fn.Name, retFFI)
		} else {
			fmt.Fprintf(&buf, "\tif %s, err = lib.Prep(\"%s\", %s, %s); err != nil {\n",
				funcVarName(fn.Name), fn.Name, retFFI, strings.Join(argFFIs, ", "))
		}
		fmt.Fprintf(&buf, "\t\treturn fmt.Errorf(\"%s: %%w\", err)\n", fn.Name)
		fmt.Fprintf(&buf, "\t}\n\n")
	}

	fmt.Fprintf(&buf, "\treturn nil\n")
	fmt.Fprintf(&buf, "}\n\n")

	for _, fn := range g.api.Functions {
		fmt.Fprintf(&buf, "%s\n", g.generateFunctionWrapper(fn))
	}

	return buf.String(), nil
}

type param struct {
	name string
	ct   parser.CType
}

// params returns the wrapper parameters of fn. A trailing "..." is dropped.
func (g *Generator) params(fn parser.Function) []param {
	var params []param
	seen := make(map[string]bool)

	for i, p := range fn.Params {
		if strings.TrimSpace(p.Type) == "..." {
			g.log.Debug("dropping variadic parameter", zap.String("function", fn.Name))
			continue
		}

		name := toParamName(p.Name)
		if name == "" || seen[name] {
			name = fmt.Sprintf("arg%d", i)
		}
		seen[name] = true

		params = append(params, param{name: name, ct: g.resolve(parser.ParseCType(p.Type))})
	}

	return params
}

func (g *Generator) generateFunctionWrapper(fn parser.Function) string {
	var buf bytes.Buffer

	goFuncName := toGoName(fn.Name)
	params := g.params(fn)

	var decl []string
	for _, p := range params {
		decl = append(decl, fmt.Sprintf("%s %s", p.name, g.cTypeToGoType(p.ct)))
	}
	paramsStr := strings.Join(decl, ", ")

	retCT := g.resolve(parser.ParseCType(fn.ReturnType))
	retGoType := g.cTypeToGoType(retCT)
	hasReturn := retGoType != ""

	writeDoc(&buf, goFuncName, fn.Description)
	if hasReturn {
		fmt.Fprintf(&buf, "func %s(%s) %s {\n", goFuncName, paramsStr, retGoType)
	} else {
		fmt.Fprintf(&buf, "func %s(%s) {\n", goFuncName, paramsStr)
	}

	for _, p := range params {
		if isStringType(p.ct) {
			fmt.Fprintf(&buf, "\t%sPtr, _ := unix.BytePtrFromString(%s)\n", p.name, p.name)
		}
	}

	if hasReturn {
		switch {
		case g.needsFFIArg(retCT):
			fmt.Fprintf(&buf, "\tvar result ffi.Arg\n")
		case isStringType(retCT):
			fmt.Fprintf(&buf, "\tvar resultPtr *byte\n")
		default:
			fmt.Fprintf(&buf, "\tvar result %s\n", retGoType)
		}
	}

	var callArgs []string
	switch {
	case !hasReturn:
		callArgs = append(callArgs, "nil")
	case isStringType(retCT):
		callArgs = append(callArgs, "unsafe.Pointer(&resultPtr)")
	default:
		callArgs = append(callArgs, "unsafe.Pointer(&result)")
	}

	for _, p := range params {
		if isStringType(p.ct) {
			callArgs = append(callArgs, fmt.Sprintf("unsafe.Pointer(&%sPtr)", p.name))
		} else {
			callArgs = append(callArgs, fmt.Sprintf("unsafe.Pointer(&%s)", p.name))
		}
	}

	fmt.Fprintf(&buf, "\t%s.Call(%s)\n", funcVarName(fn.Name), strings.Join(callArgs, ", "))

	if hasReturn {
		switch {
		case g.needsFFIArg(retCT):
			if retGoType == "bool" {
				fmt.Fprintf(&buf, "\treturn result.Bool()\n")
			} else {
				fmt.Fprintf(&buf, "\treturn %s(result)\n", retGoType)
			}
		case isStringType(retCT):
			fmt.Fprintf(&buf, "\tif resultPtr == nil {\n")
			fmt.Fprintf(&buf, "\t\treturn \"\"\n")
			fmt.Fprintf(&buf, "\t}\n")
			fmt.Fprintf(&buf, "\treturn unix.BytePtrToString(resultPtr)\n")
		default:
			fmt.Fprintf(&buf, "\treturn result\n")
		}
	}

	fmt.Fprintf(&buf, "}\n")

	return buf.String()
}

func funcVarName(name string) string {
	return toLowerCamel(name) + "Func"
}

func writeDoc(buf *bytes.Buffer, name, desc string) {
	if desc == "" {
		return
	}
	fmt.Fprintf(buf, "// %s: %s\n", name, oneLine(desc))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
