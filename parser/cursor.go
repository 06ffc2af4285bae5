package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// maxIndexLen bounds the index stamp in front of every record.
const maxIndexLen = 20

// cursor is a forward-only matcher over a byte stream. There is no pushback:
// once an operation fails the cursor keeps returning that failure.
type cursor struct {
	r       io.ByteReader
	pos     int64
	section string
	scratch []byte
	err     error
}

func newCursor(r io.Reader) *cursor {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &cursor{r: br, scratch: make([]byte, 0, 256)}
}

// Offset returns the number of bytes consumed so far.
func (c *cursor) Offset() int64 {
	return c.pos
}

func (c *cursor) next() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

func (c *cursor) fail(e *Error) error {
	if e.Section == "" {
		e.Section = c.section
	}
	e.Offset = c.pos
	c.err = e
	return e
}

func (c *cursor) streamError(err error, expected string) error {
	if errors.Is(err, io.EOF) {
		return c.fail(&Error{Kind: KindUnexpectedEOF, Expected: expected})
	}
	return c.fail(&Error{Kind: KindIO, Cause: err})
}

// expect consumes len(lit) bytes and requires them to equal lit.
func (c *cursor) expect(lit string) error {
	if c.err != nil {
		return c.err
	}
	for i := 0; i < len(lit); i++ {
		b, err := c.next()
		if err != nil {
			return c.streamError(err, lit)
		}
		if b != lit[i] {
			return c.fail(&Error{
				Kind:     KindGrammarMismatch,
				Expected: lit,
				Detail:   fmt.Sprintf("got %q at byte %d of literal", b, i),
			})
		}
	}
	return nil
}

// readUntil consumes through delim and returns what came before it. Tokens
// never span lines. The token aliases the cursor's scratch buffer and is only
// valid until the next read.
func (c *cursor) readUntil(delim string, limit int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}

	buf := c.scratch[:0]
	defer func() { c.scratch = buf[:0] }()

	for {
		b, err := c.next()
		if err != nil {
			return nil, c.streamError(err, delim)
		}
		if b == '\n' && delim != "\n" {
			return nil, c.fail(&Error{
				Kind:     KindGrammarMismatch,
				Expected: delim,
				Detail:   "line ended before delimiter",
			})
		}
		buf = append(buf, b)

		if n := len(buf) - len(delim); n >= 0 && string(buf[n:]) == delim {
			return buf[:n], nil
		}

		// Whatever follows, the token is already longer than limit.
		if len(buf) >= limit+len(delim) {
			return nil, c.fail(&Error{
				Kind:   KindFieldTooLong,
				Detail: fmt.Sprintf("no %q within %d bytes", delim, limit),
			})
		}
	}
}

// skipUntil discards bytes through delim.
func (c *cursor) skipUntil(delim byte) error {
	if c.err != nil {
		return c.err
	}
	for {
		b, err := c.next()
		if err != nil {
			return c.streamError(err, string(delim))
		}
		if b == delim {
			return nil
		}
	}
}

// readCount reads an unsigned integer literal terminated by a newline.
// Base prefixes 0x, 0o and 0b are accepted.
func (c *cursor) readCount(limit int) (int, error) {
	tok, err := c.readUntil("\n", limit)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(string(tok), 0, 64)
	if perr != nil || n > math.MaxInt {
		return 0, c.fail(&Error{
			Kind:   KindInvalidCount,
			Detail: fmt.Sprintf("%q is not a count", tok),
		})
	}
	return int(n), nil
}

// expectIndex reads the decimal stamp before ": " and requires it to equal want.
func (c *cursor) expectIndex(want int) error {
	if c.err != nil {
		return c.err
	}

	buf := c.scratch[:0]
	defer func() { c.scratch = buf[:0] }()

	var b byte
	for {
		var err error
		if b, err = c.next(); err != nil {
			return c.streamError(err, ": ")
		}
		if b < '0' || b > '9' {
			break
		}
		if len(buf) == maxIndexLen {
			return c.fail(&Error{
				Kind:   KindIndexMismatch,
				Detail: fmt.Sprintf("index longer than %d digits, want %d", maxIndexLen, want),
			})
		}
		buf = append(buf, b)
	}

	if len(buf) == 0 {
		return c.fail(&Error{
			Kind:   KindIndexMismatch,
			Detail: fmt.Sprintf("%q is not an index, want %d", b, want),
		})
	}
	if b != ':' {
		return c.fail(&Error{
			Kind:     KindGrammarMismatch,
			Expected: ": ",
			Detail:   fmt.Sprintf("got %q at byte 0 of literal", b),
		})
	}
	b, err := c.next()
	if err != nil {
		return c.streamError(err, ": ")
	}
	if b != ' ' {
		return c.fail(&Error{
			Kind:     KindGrammarMismatch,
			Expected: ": ",
			Detail:   fmt.Sprintf("got %q at byte 1 of literal", b),
		})
	}

	n, perr := strconv.ParseUint(string(buf), 10, 63)
	if perr != nil || n != uint64(want) {
		return c.fail(&Error{
			Kind:   KindIndexMismatch,
			Detail: fmt.Sprintf("got index %s, want %d", buf, want),
		})
	}
	return nil
}

// expectEOF requires the stream to be exhausted.
func (c *cursor) expectEOF() error {
	if c.err != nil {
		return c.err
	}
	b, err := c.next()
	if err == nil {
		return c.fail(&Error{
			Kind:   KindGrammarMismatch,
			Detail: fmt.Sprintf("trailing data starting with %q", b),
		})
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return c.streamError(err, "")
}
