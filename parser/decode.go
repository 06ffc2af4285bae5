// Package parser decodes API dumps: the plain-text report listing a C API's
// defines, structs, aliases, enums, callbacks and functions.
//
// The dump grammar is rigid. Decode accepts exactly one dump per stream, reads
// it in a single forward pass and either returns the whole API or an *Error,
// never a partial result.
package parser

import (
	"io"

	"go.uber.org/zap"
)

// Limits are the longest values accepted per field class, in bytes.
type Limits struct {
	Ident       int `yaml:"ident"`
	Type        int `yaml:"type"`
	Value       int `yaml:"value"`
	Description int `yaml:"description"`
}

var DefaultLimits = Limits{
	Ident:       64,
	Type:        256,
	Value:       4096,
	Description: 16384,
}

func (l Limits) withDefaults() Limits {
	if l.Ident <= 0 {
		l.Ident = DefaultLimits.Ident
	}
	if l.Type <= 0 {
		l.Type = DefaultLimits.Type
	}
	if l.Value <= 0 {
		l.Value = DefaultLimits.Value
	}
	if l.Description <= 0 {
		l.Description = DefaultLimits.Description
	}
	return l
}

type Option func(*Decoder)

// WithAllocator makes the decoder produce strings through a.
func WithAllocator(a Allocator) Option {
	return func(d *Decoder) {
		if a != nil {
			d.alloc = a
		}
	}
}

// WithLimits overrides field length ceilings. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(d *Decoder) {
		d.limits = l.withDefaults()
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// Decoder holds decode settings. It keeps no per-decode state and can be
// shared by concurrent Decode calls on different streams.
type Decoder struct {
	alloc  Allocator
	limits Limits
	log    *zap.Logger
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		alloc:  HeapAllocator(),
		limits: DefaultLimits,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes r with default settings.
func Decode(r io.Reader) (*API, error) {
	return NewDecoder().Decode(r)
}

// Decode reads one dump from r. On failure every string allocated so far has
// been freed and the returned error is an *Error.
func (d *Decoder) Decode(r io.Reader) (*API, error) {
	s := &state{
		c:      newCursor(r),
		alloc:  d.alloc,
		limits: d.limits,
		log:    d.log,
	}
	api, err := s.decode()
	if err != nil {
		d.log.Debug("decode failed", zap.Int64("offset", s.c.Offset()), zap.Error(err))
		return nil, err
	}
	return api, nil
}

// state is everything one Decode call owns.
type state struct {
	c      *cursor
	alloc  Allocator
	limits Limits
	log    *zap.Logger
}

func (s *state) decode() (*API, error) {
	sc := new(scope)
	defer sc.close()

	api := &API{alloc: s.alloc}

	var err error
	if api.Defines, err = section(s, sc, definesList, (*state).decodeDefine, releaseDefine); err != nil {
		return nil, err
	}
	if api.Structs, err = section(s, sc, structsList, (*state).decodeStruct, releaseStruct); err != nil {
		return nil, err
	}
	if api.Aliases, err = section(s, sc, aliasesList, (*state).decodeAlias, releaseAlias); err != nil {
		return nil, err
	}
	if api.Enums, err = section(s, sc, enumsList, (*state).decodeEnum, releaseEnum); err != nil {
		return nil, err
	}
	if api.Callbacks, err = section(s, sc, callbacksList, (*state).decodeCallback, releaseCallback); err != nil {
		return nil, err
	}
	if api.Functions, err = section(s, sc, functionsList, (*state).decodeFunction, releaseFunction); err != nil {
		return nil, err
	}
	if err = s.c.expectEOF(); err != nil {
		return nil, err
	}

	sc.commit()
	return api, nil
}

// section decodes one top-level section and registers its release on sc.
func section[T any](s *state, sc *scope, l list, decode func(*state) (T, error), release func(Allocator, *T)) ([]T, error) {
	s.c.section = l.noun

	items, err := parseList(s, l, decode, release)
	if err != nil {
		return nil, err
	}
	sc.onRollback(func() { releaseAll(s.alloc, items, release) })

	s.log.Debug("section decoded",
		zap.String("section", l.noun),
		zap.Int("count", len(items)),
		zap.Int64("offset", s.c.Offset()),
	)
	return items, nil
}

// str copies tok through the allocator and registers its release on sc.
func (s *state) str(sc *scope, tok []byte) (string, error) {
	v, err := s.alloc.Alloc(tok)
	if err != nil {
		return "", s.c.fail(&Error{Kind: KindAllocation, Cause: err})
	}
	sc.onRollback(func() { s.alloc.Free(v) })
	return v, nil
}

// token reads up to delim and allocates the result.
func (s *state) token(sc *scope, delim string, limit int) (string, error) {
	tok, err := s.c.readUntil(delim, limit)
	if err != nil {
		return "", err
	}
	return s.str(sc, tok)
}

// field reads a "<label><value>\n" line.
func (s *state) field(sc *scope, label string, limit int) (string, error) {
	if err := s.c.expect(label); err != nil {
		return "", err
	}
	return s.token(sc, "\n", limit)
}
