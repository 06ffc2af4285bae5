package parser_test

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/apidump/parser"
)

const emptyTail = "\nStructs found: 0\n\n" +
	"\nAliases found: 0\n\n" +
	"\nEnums found: 0\n\n" +
	"\nCallbacks found: 0\n\n" +
	"\nFunctions found: 0\n\n"

const oneDefine = "\nDefines found: 1\n\n" +
	"Define 1: FOO\n" +
	"  Name: FOO\n" +
	"  Type: INT\n" +
	"  Value: 42\n" +
	"  Description: answer\n" +
	emptyTail

func readSample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../testdata/raylib_subset.txt")
	require.NoError(t, err)
	return string(data)
}

// trackingAllocator counts live strings by backing pointer so that a string
// freed twice is caught even when another string holds the same text.
type trackingAllocator struct {
	live       map[*byte]bool
	liveEmpty  int
	doubleFree int
}

func newTrackingAllocator() *trackingAllocator {
	return &trackingAllocator{live: make(map[*byte]bool)}
}

func (a *trackingAllocator) Alloc(b []byte) (string, error) {
	if len(b) == 0 {
		a.liveEmpty++
		return "", nil
	}
	// A private copy per call; string(b) may share storage for short strings.
	buf := make([]byte, len(b))
	copy(buf, b)
	s := unsafe.String(&buf[0], len(buf))
	a.live[&buf[0]] = true
	return s, nil
}

func (a *trackingAllocator) Free(s string) {
	if len(s) == 0 {
		if a.liveEmpty == 0 {
			a.doubleFree++
			return
		}
		a.liveEmpty--
		return
	}
	p := unsafe.StringData(s)
	if !a.live[p] {
		a.doubleFree++
		return
	}
	delete(a.live, p)
}

func (a *trackingAllocator) outstanding() int {
	return len(a.live) + a.liveEmpty
}

func TestDecodeOneDefine(t *testing.T) {
	api, err := parser.Decode(strings.NewReader(oneDefine))
	require.NoError(t, err)

	want := []parser.Define{{Name: "FOO", Type: parser.DefineInt, Value: "42", Description: "answer"}}
	if diff := cmp.Diff(want, api.Defines); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}

	assert.NotNil(t, api.Structs)
	assert.Empty(t, api.Structs)
	assert.Empty(t, api.Aliases)
	assert.Empty(t, api.Enums)
	assert.Empty(t, api.Callbacks)
	assert.Empty(t, api.Functions)
}

func TestDecodeSample(t *testing.T) {
	api, err := parser.Decode(strings.NewReader(readSample(t)))
	require.NoError(t, err)

	assert.Len(t, api.Defines, 5)
	assert.Len(t, api.Structs, 2)
	assert.Len(t, api.Aliases, 1)
	assert.Len(t, api.Enums, 1)
	assert.Len(t, api.Callbacks, 1)
	assert.Len(t, api.Functions, 3)

	names := make([]string, len(api.Defines))
	for i, d := range api.Defines {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"RAYLIB_VERSION", "PI", "DEG2RAD", "MAX_TOUCH_POINTS", "RAYWHITE"}, names)
	assert.Equal(t, parser.DefineFloatMath, api.Defines[2].Type)
	assert.Equal(t, "CLITERAL(Color){ 245, 245, 245, 255 }", api.Defines[4].Value)

	wantColor := parser.Struct{
		Name:        "Color",
		Description: "Color, 4 components, R8G8B8A8 (32bit)",
		Fields: []parser.Field{
			{Type: "unsigned char", Name: "r", Description: "Color red value"},
			{Type: "unsigned char", Name: "g", Description: "Color green value"},
			{Type: "unsigned char", Name: "b", Description: "Color blue value"},
			{Type: "unsigned char", Name: "a", Description: "Color alpha value"},
		},
	}
	if diff := cmp.Diff(wantColor, api.Structs[1]); diff != "" {
		t.Errorf("Color mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, parser.Alias{Type: "Vector2", Name: "Point", Description: "Point, same as Vector2"}, api.Aliases[0])

	wantEnum := parser.Enum{
		Name:        "ConfigFlags",
		Description: "System/Window config flags",
		Values: []parser.EnumValue{
			{Name: "FLAG_VSYNC_HINT", Value: "64", Description: "Set to try enabling V-Sync on GPU"},
			{Name: "FLAG_FULLSCREEN_MODE", Value: "2", Description: "Set to run program in fullscreen"},
		},
	}
	if diff := cmp.Diff(wantEnum, api.Enums[0]); diff != "" {
		t.Errorf("ConfigFlags mismatch (-want +got):\n%s", diff)
	}

	cb := api.Callbacks[0]
	assert.Equal(t, "TraceLogCallback", cb.Name)
	assert.Equal(t, "void", cb.ReturnType)
	assert.Equal(t, "Logging: Redirect trace log messages", cb.Description)
	assert.Equal(t, []parser.Param{
		{Type: "int", Name: "logLevel"},
		{Type: "const char *", Name: "text"},
		{Type: "va_list", Name: "args"},
	}, cb.Params)

	wantFuncs := []parser.Function{
		{
			Name:        "InitWindow",
			ReturnType:  "void",
			Description: "Initialize window and OpenGL context",
			Params: []parser.Param{
				{Type: "int", Name: "width"},
				{Type: "int", Name: "height"},
				{Type: "const char *", Name: "title"},
			},
		},
		{
			Name:        "WindowShouldClose",
			ReturnType:  "bool",
			Description: "Check if application should close",
		},
		{
			Name:        "DrawPixelV",
			ReturnType:  "void",
			Description: "Draw a pixel (Vector version)",
			Params: []parser.Param{
				{Type: "Vector2", Name: "position"},
				{Type: "Color", Name: "color"},
			},
		},
	}
	if diff := cmp.Diff(wantFuncs, api.Functions, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAcceptsPaddedIndexAndPrefixedCounts(t *testing.T) {
	input := "\nDefines found: 0x2\n\n" +
		"Define 001: A\n  Name: A\n  Type: int\n  Value: 1\n  Description: \n" +
		"Define 002: B\n  Name: B\n  Type: Guard\n  Value: \n  Description: \n" +
		"\nStructs found: 0b0\n\n" +
		"\nAliases found: 0o0\n\n" +
		"\nEnums found: 0\n\n" +
		"\nCallbacks found: 0\n\n" +
		"\nFunctions found: 0\n\n"

	api, err := parser.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, api.Defines, 2)
	assert.Equal(t, parser.DefineGuard, api.Defines[1].Type)
	assert.Equal(t, "", api.Defines[1].Value)
}

func TestDecodeDefineTypeIgnoresCase(t *testing.T) {
	for _, tag := range []string{"INT_MATH", "int_math", "Int_Math"} {
		t.Run(tag, func(t *testing.T) {
			input := strings.Replace(oneDefine, "Type: INT", "Type: "+tag, 1)
			api, err := parser.Decode(strings.NewReader(input))
			require.NoError(t, err)
			assert.Equal(t, parser.DefineIntMath, api.Defines[0].Type)
		})
	}

	input := strings.Replace(oneDefine, "Type: INT", "Type: bogus_tag", 1)
	_, err := parser.Decode(strings.NewReader(input))
	require.ErrorIs(t, err, parser.ErrUnknownDefineType)
}

func TestDecodeStrictGrammar(t *testing.T) {
	sample := readSample(t)

	tests := []struct {
		name    string
		old     string
		new     string
		section string
	}{
		{name: "section header", old: "Defines found: ", new: "Defines founde: ", section: "Defines"},
		{name: "header case", old: "\nStructs found", new: "\nStructs Found", section: "Structs"},
		{name: "record noun", old: "Define 1: ", new: "Defone 1: ", section: "Defines"},
		{name: "field label", old: "  Name: PI", new: "  Nane: PI", section: "Defines"},
		{name: "field indent", old: "  Value: 10", new: " Value: 10", section: "Defines"},
		{name: "nested count label", old: "  Fields found: 4", new: "  Field found: 4", section: "Structs"},
		{name: "nested item", old: "    Field 2: float", new: "    Fielx 2: float", section: "Structs"},
		{name: "blank separator", old: "Aliases found: 1\n\n", new: "Aliases found: 1\nX", section: "Aliases"},
		{name: "return type label", old: "  Return type: bool", new: "  ReturnType: bool", section: "Functions"},
		{name: "section order", old: "\nEnums found", new: "\nEnumz found", section: "Enums"},
		{name: "index separator", old: "Define 2: PI", new: "Define 2; PI", section: "Defines"},
		{name: "nested index separator", old: "    Param 2: int", new: "    Param 2 int", section: "Functions"},
		{name: "newline in column", old: "    Field 1: float | x", new: "    Field 1: float\n | x", section: "Structs"},
		{name: "newline in enum value", old: "    Value 1: FLAG", new: "    Value 1: FL\nAG", section: "Enums"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, sample, tt.old)
			input := strings.Replace(sample, tt.old, tt.new, 1)

			alloc := newTrackingAllocator()
			api, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(input))
			require.ErrorIs(t, err, parser.ErrGrammarMismatch)
			assert.Nil(t, api)

			var perr *parser.Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.section, perr.Section)

			assert.Zero(t, alloc.outstanding())
			assert.Zero(t, alloc.doubleFree)
		})
	}
}

func TestDecodeSectionsOutOfOrder(t *testing.T) {
	input := "\nDefines found: 0\n\n" +
		"\nAliases found: 0\n\n" +
		"\nStructs found: 0\n\n" +
		"\nEnums found: 0\n\n" +
		"\nCallbacks found: 0\n\n" +
		"\nFunctions found: 0\n\n"

	_, err := parser.Decode(strings.NewReader(input))
	require.ErrorIs(t, err, parser.ErrGrammarMismatch)
	assert.Contains(t, err.Error(), "structs: grammar_mismatch")
}

func TestDecodeTrailingData(t *testing.T) {
	_, err := parser.Decode(strings.NewReader(oneDefine + "\n"))
	require.ErrorIs(t, err, parser.ErrGrammarMismatch)
}

func TestDecodeIndexMismatch(t *testing.T) {
	sample := readSample(t)

	for _, tt := range []struct{ old, new string }{
		{old: "Define 2: PI", new: "Define 3: PI"},
		{old: "Struct 2: Color", new: "Struct 1: Color"},
		{old: "    Value 2: FLAG", new: "    Value x: FLAG"},
		{old: "    Param 3: const", new: "    Param 4: const"},
	} {
		t.Run(tt.new, func(t *testing.T) {
			input := strings.Replace(sample, tt.old, tt.new, 1)
			alloc := newTrackingAllocator()
			_, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(input))
			require.ErrorIs(t, err, parser.ErrIndexMismatch)
			assert.Zero(t, alloc.outstanding())
			assert.Zero(t, alloc.doubleFree)
		})
	}
}

func TestDecodeInvalidCount(t *testing.T) {
	for _, count := range []string{"", "x", "-1", "1.5", "0xZZ", "18446744073709551616"} {
		t.Run(count, func(t *testing.T) {
			input := strings.Replace(oneDefine, "Defines found: 1", "Defines found: "+count, 1)
			_, err := parser.Decode(strings.NewReader(input))
			require.ErrorIs(t, err, parser.ErrInvalidCount)
		})
	}
}

func TestDecodeFieldTooLong(t *testing.T) {
	limits := parser.Limits{Ident: 3}

	_, err := parser.NewDecoder(parser.WithLimits(limits)).Decode(strings.NewReader(oneDefine))
	require.NoError(t, err)

	input := strings.Replace(oneDefine, "  Name: FOO", "  Name: FOOD", 1)
	alloc := newTrackingAllocator()
	_, err = parser.NewDecoder(parser.WithLimits(limits), parser.WithAllocator(alloc)).Decode(strings.NewReader(input))
	require.ErrorIs(t, err, parser.ErrFieldTooLong)
	assert.Zero(t, alloc.outstanding())

	long := strings.Repeat("d", parser.DefaultLimits.Description+1)
	input = strings.Replace(oneDefine, "Description: answer", "Description: "+long, 1)
	_, err = parser.Decode(strings.NewReader(input))
	require.ErrorIs(t, err, parser.ErrFieldTooLong)
}

// Cutting a valid dump anywhere must fail cleanly and leave nothing allocated.
func TestDecodeTruncatedInputReleasesEverything(t *testing.T) {
	sample := readSample(t)

	for k := 0; k < len(sample); k++ {
		alloc := newTrackingAllocator()
		api, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(sample[:k]))
		if !errors.Is(err, parser.ErrUnexpectedEOF) {
			t.Fatalf("cut at %d: got %v, want unexpected end of stream", k, err)
		}
		if api != nil {
			t.Fatalf("cut at %d: got a result alongside the error", k)
		}
		if n := alloc.outstanding(); n != 0 {
			t.Fatalf("cut at %d: %d strings still allocated", k, n)
		}
		if alloc.doubleFree != 0 {
			t.Fatalf("cut at %d: %d strings released twice", k, alloc.doubleFree)
		}
	}

	alloc := newTrackingAllocator()
	api, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.NotZero(t, alloc.outstanding())

	api.Release()
	assert.Zero(t, alloc.outstanding())
	assert.Zero(t, alloc.doubleFree)
	assert.Empty(t, api.Defines)

	api.Release()
	assert.Zero(t, alloc.doubleFree)
}

type failingReader struct {
	r     io.Reader
	after int
	err   error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, f.err
	}
	if len(p) > f.after {
		p = p[:f.after]
	}
	n, err := f.r.Read(p)
	f.after -= n
	return n, err
}

func TestDecodeStreamError(t *testing.T) {
	errBoom := errors.New("boom")
	sample := readSample(t)

	alloc := newTrackingAllocator()
	r := &failingReader{r: strings.NewReader(sample), after: len(sample) / 2, err: errBoom}

	_, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(r)
	require.ErrorIs(t, err, parser.ErrIO)
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, alloc.outstanding())
}

func TestDecodeAllocationLimit(t *testing.T) {
	sample := readSample(t)

	alloc := parser.NewLimitAllocator(256)
	_, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(sample))
	require.ErrorIs(t, err, parser.ErrAllocation)
	require.ErrorIs(t, err, parser.ErrAllocLimit)
	assert.Zero(t, alloc.InUse())

	alloc = parser.NewLimitAllocator(1 << 20)
	api, err := parser.NewDecoder(parser.WithAllocator(alloc)).Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.NotZero(t, alloc.InUse())

	api.Release()
	assert.Zero(t, alloc.InUse())
}

func TestErrorMessage(t *testing.T) {
	input := strings.Replace(oneDefine, "  Value: 42", "  Valeu: 42", 1)

	_, err := parser.Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.Equal(t, `apidump: defines: grammar_mismatch at offset 63: expected "  Value: ": got 'e' at byte 5 of literal`, err.Error())
}
