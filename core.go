package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/lim/internal/fileinput"
)

// Core holds the ambient concerns shared across the CLI: source reading
// for the lexer (line-tracked, via fileinput.Input) and debug logging.
// The interpreted program's own stdin/stdout live in State instead,
// since those need ring-buffered backward seek that source reading does
// not.
type Core struct {
	logging
	fileinput.Input
	closers []io.Closer
}

func (core *Core) Close() (err error) {
	for i := len(core.closers) - 1; i >= 0; i-- {
		if cerr := core.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// halt logs err (best-effort) and panics a haltError carrying code. Run's
// deferred recover turns a haltError raised while Run executes into its
// returned exit status; main reports any other panic as an internal error.
func (core *Core) halt(err error, code int) {
	func() {
		defer func() { recover() }()
		core.logf("#", "halt error: %v", err)
	}()
	panic(haltError{error: err, ExitCode: code})
}

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
