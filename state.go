package main

import (
	"io"

	"github.com/jcorbin/lim/internal/flushio"
	"github.com/jcorbin/lim/internal/ringio"
)

// State is LIM's execution state: global variables, a value stack holding
// the chain of active call frames, a history stack of save/restore
// records, and the program's input and output. Grounded on the original
// front end's state.c.
type State struct {
	globals   []int
	nmutables int
	stack     []int
	fp        int
	history   []int
	in        *ringio.Reader
	out       *ringio.Writer
	outFlush  flushio.WriteFlusher

	// ProgName names the running program in abort/division-by-zero
	// messages.
	ProgName string
}

// NewState allocates a state with nglobals global slots (the first
// nmutables of which are mutable) and an empty call stack, reading from r
// and writing to w through bounded ring buffers. w is wrapped in a
// flushio.WriteFlusher so Close flushes any buffering flushio added (e.g.
// around a raw os.File) once the ring itself has been drained.
func NewState(nglobals, nmutables int, r io.Reader, w io.Writer) *State {
	wf := flushio.NewWriteFlusher(w)
	return &State{
		globals:   make([]int, nglobals),
		nmutables: nmutables,
		in:        ringio.NewReader(r),
		out:       ringio.NewWriter(wf),
		outFlush:  wf,
	}
}

// Close flushes the state's output: first the ring buffer's own unflushed
// window down to the wrapped sink, then anything flushio buffered on top
// of that sink.
func (s *State) Close() error {
	if err := s.out.Close(); err != nil {
		return err
	}
	return s.outFlush.Flush()
}

// Reader returns the state's input stream.
func (s *State) Reader() *ringio.Reader { return s.in }

// Writer returns the state's output stream.
func (s *State) Writer() *ringio.Writer { return s.out }

// Assign writes rhs into lhs: the current frame if lhs.Index >= 0, else
// the global at -1-lhs.Index.
func (s *State) Assign(lhs Var, rhs int) {
	if lhs.Index >= 0 {
		s.stack[s.fp+lhs.Index] = rhs
	} else {
		s.globals[-1-lhs.Index] = rhs
	}
}

// Lookup returns the current value of v.
func (s *State) Lookup(v Var) int {
	if v.Index >= 0 {
		return s.stack[s.fp+v.Index]
	}
	return s.globals[-1-v.Index]
}

// Save pushes onto the history stack whatever portions of the current
// state are not named safe, preceded by an fp sentinel used to verify
// balance on the matching Discard/Restore.
func (s *State) Save(safe int) {
	s.history = append(s.history, s.fp)
	if safe&DimI == 0 {
		s.history = append(s.history, int(s.in.Tell()))
	}
	if safe&DimO == 0 {
		s.history = append(s.history, int(s.out.Tell()))
	}
	if safe&DimG == 0 {
		s.history = append(s.history, s.globals[:s.nmutables]...)
	}
	if safe&DimL == 0 {
		s.history = append(s.history, s.stack[s.fp:]...)
	}
}

// Discard drops the record pushed by a matching Save, keeping the current
// state. safe must equal the value passed to that Save.
func (s *State) Discard(safe int) {
	if safe&DimL == 0 {
		s.popN(len(s.stack) - s.fp)
	}
	if safe&DimG == 0 {
		s.popN(s.nmutables)
	}
	if safe&DimO == 0 {
		s.popOne()
	}
	if safe&DimI == 0 {
		s.popOne()
	}
	s.popFPSentinel()
}

// Restore undoes everything since the matching Save, reverting input/
// output position, globals, and the current frame's locals. safe must
// equal the value passed to that Save.
func (s *State) Restore(safe int) {
	if safe&DimL == 0 {
		n := len(s.stack) - s.fp
		vals := s.popValues(n)
		copy(s.stack[s.fp:], vals)
	}
	if safe&DimG == 0 {
		vals := s.popValues(s.nmutables)
		copy(s.globals[:s.nmutables], vals)
	}
	if safe&DimO == 0 {
		s.out.Seek(uint(s.popOne()))
	}
	if safe&DimI == 0 {
		s.in.Seek(uint(s.popOne()))
	}
	s.popFPSentinel()
}

func (s *State) popOne() int {
	n := len(s.history) - 1
	v := s.history[n]
	s.history = s.history[:n]
	return v
}

func (s *State) popN(n int) {
	s.history = s.history[:len(s.history)-n]
}

func (s *State) popValues(n int) []int {
	i := len(s.history) - n
	vals := append([]int(nil), s.history[i:]...)
	s.history = s.history[:i]
	return vals
}

func (s *State) popFPSentinel() {
	if s.popOne() != s.fp {
		panic(haltError{error: errHistoryCorrupt, ExitCode: 2})
	}
}

// NewFrame pushes a new call frame: nouts out slots (zeroed), then the
// current values of inouts, then ins, then further locals to pad the
// frame out to framesize. The caller's fp is saved on the value stack
// itself, right below the new frame.
func (s *State) NewFrame(nouts int, inouts []Var, ins []int, framesize int) {
	s.stack = append(s.stack, s.fp)
	newfp := len(s.stack)
	s.stack = append(s.stack, make([]int, framesize)...)
	i := newfp
	i += nouts
	for _, iv := range inouts {
		s.stack[i] = s.Lookup(iv)
		i++
	}
	copy(s.stack[i:], ins)
	s.fp = newfp
}

// OldFrame pops the current frame. If succeeded, its out and inout slots
// are then copied back into the caller-named out and inout variables,
// resolved against the caller's restored frame pointer.
func (s *State) OldFrame(outs []Var, inouts []Var, succeeded bool) {
	oldfp := s.fp
	if oldfp == 0 {
		panic(haltError{error: errFrameUnderflow, ExitCode: 2})
	}
	frame := s.stack[oldfp:]
	s.stack = s.stack[:s.fp]
	s.fp = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if succeeded {
		for i, o := range outs {
			s.Assign(o, frame[i])
		}
		for i, iov := range inouts {
			s.Assign(iov, frame[len(outs)+i])
		}
	}
}

var (
	errHistoryCorrupt  = stateError("save/restore history corrupted")
	errFrameUnderflow  = stateError("call frame underflow")
)

type stateError string

func (e stateError) Error() string { return string(e) }
