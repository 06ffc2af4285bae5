package parser

// Release returns every string in a to the allocator that produced it and
// empties a. Calling it again is a no-op.
func (a *API) Release() {
	if a == nil || a.alloc == nil {
		return
	}
	alloc := a.alloc

	releaseAll(alloc, a.Functions, releaseFunction)
	releaseAll(alloc, a.Callbacks, releaseCallback)
	releaseAll(alloc, a.Enums, releaseEnum)
	releaseAll(alloc, a.Aliases, releaseAlias)
	releaseAll(alloc, a.Structs, releaseStruct)
	releaseAll(alloc, a.Defines, releaseDefine)

	*a = API{}
}

// releaseAll releases items newest first.
func releaseAll[T any](a Allocator, items []T, release func(Allocator, *T)) {
	for i := len(items) - 1; i >= 0; i-- {
		release(a, &items[i])
	}
}

// Strings are freed in the reverse of the order the decoders allocate them.

func releaseDefine(a Allocator, d *Define) {
	a.Free(d.Description)
	a.Free(d.Value)
	a.Free(d.Name)
}

func releaseField(a Allocator, f *Field) {
	a.Free(f.Description)
	a.Free(f.Name)
	a.Free(f.Type)
}

func releaseStruct(a Allocator, s *Struct) {
	releaseAll(a, s.Fields, releaseField)
	a.Free(s.Description)
	a.Free(s.Name)
}

func releaseAlias(a Allocator, al *Alias) {
	a.Free(al.Description)
	a.Free(al.Name)
	a.Free(al.Type)
}

func releaseEnumValue(a Allocator, v *EnumValue) {
	a.Free(v.Description)
	a.Free(v.Value)
	a.Free(v.Name)
}

func releaseEnum(a Allocator, e *Enum) {
	releaseAll(a, e.Values, releaseEnumValue)
	a.Free(e.Description)
	a.Free(e.Name)
}

func releaseParam(a Allocator, p *Param) {
	a.Free(p.Name)
	a.Free(p.Type)
}

func releaseFunction(a Allocator, fn *Function) {
	releaseAll(a, fn.Params, releaseParam)
	a.Free(fn.Description)
	a.Free(fn.ReturnType)
	a.Free(fn.Name)
}

func releaseCallback(a Allocator, cb *Callback) {
	releaseFunction(a, (*Function)(cb))
}
