// Package ringio implements the buffered reader and writer that give LIM
// programs bounded backward seeking over an otherwise sequential byte
// stream, grounded on the original front end's stdlimrd.c/stdlimwr.c ring
// buffers.
package ringio

import "io"

// BufLen is the size of the reader's backing ring buffer: a seek more than
// BufLen bytes behind the current read position can no longer succeed.
const BufLen = 32 * 1024

// ReadChunk is how much the reader asks the underlying source for at a time
// when the ring buffer runs dry.
const ReadChunk = 8 * 1024

// Sentinel values returned by Peek (and, for EOF, GetChar).
const (
	EOF     = -1
	Unknown = -2
)

// Reader is a byte-oriented reader with bounded backward Seek, built around
// a fixed-size ring buffer over an underlying io.Reader. Equivalent to the
// original limrd_t interface.
type Reader struct {
	src  io.Reader
	buf  [BufLen]byte
	st   uint // absolute position of buf[st%BufLen]
	len  uint // number of valid bytes starting at st
	cur  uint // absolute read cursor, st <= cur <= st+len
	max  uint // high-water mark of cur, i.e. MaxRead()
	done bool // underlying source reported EOF
}

// NewReader wraps r in a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r}
}

// GetChar consumes and returns the next byte (0-255), or EOF.
func (rd *Reader) GetChar() int {
	if rd.cur == rd.st+rd.len {
		if !rd.fill() {
			return EOF
		}
	}
	c := rd.buf[rd.cur%BufLen]
	rd.cur++
	if rd.cur > rd.max {
		rd.max = rd.cur
	}
	return int(c)
}

// Peek returns the next byte without consuming it, EOF at end of stream, or
// Unknown if the ring buffer is currently empty at the cursor — callers
// treat Unknown as "no prediction available", never as a hard EOF.
func (rd *Reader) Peek() int {
	if rd.cur == rd.st+rd.len {
		if rd.done {
			return EOF
		}
		return Unknown
	}
	return int(rd.buf[rd.cur%BufLen])
}

// Consume succeeds and advances the cursor past s iff the next len(s) bytes
// in the stream equal s exactly.
func (rd *Reader) Consume(s []byte) bool {
	for rd.st+rd.len-rd.cur < uint(len(s)) {
		if !rd.fill() {
			return false
		}
	}
	for i, b := range s {
		if rd.buf[(rd.cur+uint(i))%BufLen] != b {
			return false
		}
	}
	rd.cur += uint(len(s))
	if rd.cur > rd.max {
		rd.max = rd.cur
	}
	return true
}

// At reports whether the next len(s) bytes in the stream equal s exactly,
// without consuming them.
func (rd *Reader) At(s []byte) bool {
	for rd.st+rd.len-rd.cur < uint(len(s)) {
		if !rd.fill() {
			return false
		}
	}
	for i, b := range s {
		if rd.buf[(rd.cur+uint(i))%BufLen] != b {
			return false
		}
	}
	return true
}

// Eof reports whether the reader is at end of stream, pulling in more data
// from the source if needed to find out.
func (rd *Reader) Eof() bool {
	if rd.cur == rd.st+rd.len {
		rd.fill()
	}
	return rd.cur == rd.st+rd.len
}

// Tell returns the current read position, i.e. the number of bytes
// consumed so far by GetChar/Consume.
func (rd *Reader) Tell() uint { return rd.cur }

// MaxRead returns the high-water mark of Tell over the reader's lifetime.
func (rd *Reader) MaxRead() uint { return rd.max }

// Seek moves the read cursor to absolute position n. Forward seeks (n >
// Tell()) are a caller bug and panic; backward seeks within the live window
// (Tell()-n <= Tell()-st, i.e. n is still buffered) succeed, others fail by
// returning false leaving the cursor untouched.
func (rd *Reader) Seek(n uint) bool {
	if int(n-rd.cur) > 0 {
		panic(errSeekForward)
	}
	if rd.cur-rd.st >= rd.cur-n {
		rd.cur = n
		if rd.cur > rd.max {
			rd.max = rd.cur
		}
		return true
	}
	return false
}

// fill advances st+len by at least one byte, returning false at end of
// stream. Mirrors stdlimrd.c's filbuf: it requires that either cur-st is
// already large (so shifting st doesn't disturb bytes still needed) or
// len+ReadChunk fits the buffer without wrapping into live data.
func (rd *Reader) fill() bool {
	if rd.done {
		return false
	}
	bufpos := (rd.st + rd.len) % BufLen
	n := ReadChunk
	if room := BufLen - int(bufpos); n > room {
		n = room
	}
	m, err := rd.src.Read(rd.buf[bufpos : int(bufpos)+n])
	if m == 0 {
		rd.done = true
		if err != nil && err != io.EOF {
			panic(err)
		}
		return false
	}
	if err == io.EOF {
		rd.done = true
	}
	rd.len += uint(m)
	if rd.len > BufLen {
		rd.st += rd.len - BufLen
		rd.len = BufLen
	}
	return true
}

type seekForwardError struct{}

func (seekForwardError) Error() string { return "ringio: seek is not backward" }

var errSeekForward error = seekForwardError{}
