// Package options provides a generic functional-options helper shared by
// every configurable constructor in EmailDB (BlockFile, EmailStore, and
// friends), so each of those packages only has to declare its own WithXxx
// functions rather than re-implementing the apply/Func/Apply plumbing.
//
// Apply wraps every failing option with errs.ErrInvalidOption, so a caller
// can tell "one of my With* arguments was rejected" apart from an I/O or
// framing failure further down the same constructor without inspecting
// error text.
package options

import (
	"fmt"

	"github.com/emaildb/emaildb/errs"
)

// Option configures a target of type T. It is generic so every package
// that needs functional options can declare its own named alias, e.g.
// type BlockFileOption = options.Option[*Config].
type Option[T any] interface {
	apply(T) error
}

// Func wraps a plain function as an Option.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an Option from a function that can fail.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an Option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)

			return nil
		},
	}
}

// Apply runs every opt against target in order, stopping at the first
// error. A failing opt's error is wrapped in errs.ErrInvalidOption.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidOption, err)
		}
	}

	return nil
}
