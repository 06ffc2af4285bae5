package parser

import "fmt"

// Each top-level decoder starts right after "<Noun> i: " and first drops the
// rest of the title line; the title repeats the record name.

func (s *state) decodeDefine() (Define, error) {
	sc := new(scope)
	defer sc.close()

	var (
		d   Define
		err error
	)
	if err = s.c.skipUntil('\n'); err != nil {
		return Define{}, err
	}
	if d.Name, err = s.field(sc, "  Name: ", s.limits.Ident); err != nil {
		return Define{}, err
	}
	if d.Type, err = s.defineType(); err != nil {
		return Define{}, err
	}
	if d.Value, err = s.field(sc, "  Value: ", s.limits.Value); err != nil {
		return Define{}, err
	}
	if d.Description, err = s.field(sc, "  Description: ", s.limits.Description); err != nil {
		return Define{}, err
	}

	sc.commit()
	return d, nil
}

// defineType reads the Type line. The tag is not allocated.
func (s *state) defineType() (DefineType, error) {
	if err := s.c.expect("  Type: "); err != nil {
		return DefineUnknown, err
	}
	tok, err := s.c.readUntil("\n", s.limits.Ident)
	if err != nil {
		return DefineUnknown, err
	}
	t, perr := ParseDefineType(string(tok))
	if perr != nil {
		return DefineUnknown, s.c.fail(&Error{
			Kind:   KindUnknownDefineType,
			Detail: fmt.Sprintf("%q is not a define type", tok),
		})
	}
	return t, nil
}

func (s *state) decodeStruct() (Struct, error) {
	sc := new(scope)
	defer sc.close()

	var (
		st  Struct
		err error
	)
	if err = s.c.skipUntil('\n'); err != nil {
		return Struct{}, err
	}
	if st.Name, err = s.field(sc, "  Name: ", s.limits.Ident); err != nil {
		return Struct{}, err
	}
	if st.Description, err = s.field(sc, "  Description: ", s.limits.Description); err != nil {
		return Struct{}, err
	}
	if st.Fields, err = parseList(s, fieldsList, (*state).decodeField, releaseField); err != nil {
		return Struct{}, err
	}

	sc.commit()
	return st, nil
}

// decodeField reads "<type> | <name> | <description>\n".
func (s *state) decodeField() (Field, error) {
	sc := new(scope)
	defer sc.close()

	var (
		f   Field
		err error
	)
	if f.Type, err = s.token(sc, " | ", s.limits.Type); err != nil {
		return Field{}, err
	}
	if f.Name, err = s.token(sc, " | ", s.limits.Ident); err != nil {
		return Field{}, err
	}
	if f.Description, err = s.token(sc, "\n", s.limits.Description); err != nil {
		return Field{}, err
	}

	sc.commit()
	return f, nil
}

func (s *state) decodeAlias() (Alias, error) {
	sc := new(scope)
	defer sc.close()

	var (
		a   Alias
		err error
	)
	if err = s.c.skipUntil('\n'); err != nil {
		return Alias{}, err
	}
	if a.Type, err = s.field(sc, "  Type: ", s.limits.Type); err != nil {
		return Alias{}, err
	}
	if a.Name, err = s.field(sc, "  Name: ", s.limits.Ident); err != nil {
		return Alias{}, err
	}
	if a.Description, err = s.field(sc, "  Description: ", s.limits.Description); err != nil {
		return Alias{}, err
	}

	sc.commit()
	return a, nil
}

func (s *state) decodeEnum() (Enum, error) {
	sc := new(scope)
	defer sc.close()

	var (
		e   Enum
		err error
	)
	if err = s.c.skipUntil('\n'); err != nil {
		return Enum{}, err
	}
	if e.Name, err = s.field(sc, "  Name: ", s.limits.Ident); err != nil {
		return Enum{}, err
	}
	if e.Description, err = s.field(sc, "  Description: ", s.limits.Description); err != nil {
		return Enum{}, err
	}
	if e.Values, err = parseList(s, valuesList, (*state).decodeEnumValue, releaseEnumValue); err != nil {
		return Enum{}, err
	}

	sc.commit()
	return e, nil
}

// decodeEnumValue reads "<name> | <value> | <description>\n".
func (s *state) decodeEnumValue() (EnumValue, error) {
	sc := new(scope)
	defer sc.close()

	var (
		v   EnumValue
		err error
	)
	if v.Name, err = s.token(sc, " | ", s.limits.Ident); err != nil {
		return EnumValue{}, err
	}
	if v.Value, err = s.token(sc, " | ", s.limits.Value); err != nil {
		return EnumValue{}, err
	}
	if v.Description, err = s.token(sc, "\n", s.limits.Description); err != nil {
		return EnumValue{}, err
	}

	sc.commit()
	return v, nil
}

func (s *state) decodeCallback() (Callback, error) {
	fn, err := s.decodeFunction()
	if err != nil {
		return Callback{}, err
	}
	return Callback(fn), nil
}

func (s *state) decodeFunction() (Function, error) {
	sc := new(scope)
	defer sc.close()

	var (
		fn  Function
		err error
	)
	if err = s.c.skipUntil('\n'); err != nil {
		return Function{}, err
	}
	if fn.Name, err = s.field(sc, "  Name: ", s.limits.Ident); err != nil {
		return Function{}, err
	}
	if fn.ReturnType, err = s.field(sc, "  Return type: ", s.limits.Type); err != nil {
		return Function{}, err
	}
	if fn.Description, err = s.field(sc, "  Description: ", s.limits.Description); err != nil {
		return Function{}, err
	}
	if fn.Params, err = parseList(s, paramsList, (*state).decodeParam, releaseParam); err != nil {
		return Function{}, err
	}

	sc.commit()
	return fn, nil
}

// decodeParam reads "<type> | <name>\n".
func (s *state) decodeParam() (Param, error) {
	sc := new(scope)
	defer sc.close()

	var (
		p   Param
		err error
	)
	if p.Type, err = s.token(sc, " | ", s.limits.Type); err != nil {
		return Param{}, err
	}
	if p.Name, err = s.token(sc, "\n", s.limits.Ident); err != nil {
		return Param{}, err
	}

	sc.commit()
	return p, nil
}
