package main

import (
	"io"
	"io/ioutil"
	"strings"
)

// Config collects what's needed to compile and run a LIM program: its
// source, the program's own stdin/stdout, and a debug bitmask. Built
// through Option values rather than a struct literal, so callers (the CLI,
// or a test) only name what they care about.
type Config struct {
	ProgName string
	Source   io.Reader
	Stdin    io.Reader
	Stdout   io.Writer
	Debug    int
	Logf     func(mess string, args ...interface{})
}

// Option applies one setting to a Config under construction.
type Option interface{ apply(c *Config) }

var defaultConfig = Options(
	WithStdin(strings.NewReader("")),
	WithStdout(ioutil.Discard),
)

// Options flattens a sequence of Options (including nils and nested
// Options) into one.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*Config) {}

type options []Option

func (opts options) apply(c *Config) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(c)
		}
	}
}

// NewConfig builds a Config from defaults plus opts, in order.
func NewConfig(opts ...Option) *Config {
	c := &Config{}
	defaultConfig.apply(c)
	Options(opts...).apply(c)
	return c
}

type sourceOption struct {
	io.Reader
	name string
}

func (o sourceOption) apply(c *Config) {
	c.Source = o.Reader
	c.ProgName = o.name
}

// WithSource sets the program source to read and the name to report it
// under in compile and runtime error messages.
func WithSource(r io.Reader, name string) Option { return sourceOption{r, name} }

type stdinOption struct{ io.Reader }

func (o stdinOption) apply(c *Config) { c.Stdin = o.Reader }

// WithStdin sets the running program's own input stream.
func WithStdin(r io.Reader) Option { return stdinOption{r} }

type stdoutOption struct{ io.Writer }

func (o stdoutOption) apply(c *Config) { c.Stdout = o.Writer }

// WithStdout sets the running program's own output stream.
func WithStdout(w io.Writer) Option { return stdoutOption{w} }

type debugOption int

func (o debugOption) apply(c *Config) { c.Debug = int(o) }

// WithDebug sets the debug bitmask: bit 0 allows Err's purity optimization,
// bits 1/2/3 dump the tree before annotation, after annotation, and after
// marking, respectively.
func WithDebug(bits int) Option { return debugOption(bits) }

type logfOption func(mess string, args ...interface{})

func (o logfOption) apply(c *Config) { c.Logf = o }

// WithLogf sets the function debug dumps and internal diagnostics are
// written through.
func WithLogf(f func(mess string, args ...interface{})) Option { return logfOption(f) }
