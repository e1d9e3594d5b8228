// Package page combines the resource loaders of a catalog page into one view
// with a single loading/error gate.
package page

import (
	"fmt"

	"catalog/storefront/internal/loader"
)

type Status int

const (
	StatusInitial Status = iota
	StatusLoading
	StatusSuccess
	StatusPartialError
	StatusFatalError
)

func (s Status) String() string {
	switch s {
	case StatusInitial:
		return "INITIAL"
	case StatusLoading:
		return "LOADING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusPartialError:
		return "PARTIAL_ERROR"
	case StatusFatalError:
		return "FATAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for candidate := StatusInitial; candidate <= StatusFatalError; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown page status %q", text)
}

// Settled reports whether the page reached a terminal state for its route.
func (s Status) Settled() bool {
	return s == StatusSuccess || s == StatusPartialError || s == StatusFatalError
}

// Gate is what the aggregator needs to know about one constituent resource.
type Gate struct {
	Loading bool
	Err     error
}

func gateOf[T any](state loader.State[T]) Gate {
	return Gate{Loading: state.Loading, Err: state.Err}
}

type Outcome struct {
	Status      Status
	PageLoading bool  // primary entity or a banner still loading
	Err         error // fatal error, if any
	ListErr     error
}

// Resolve applies the page rule. The primary entity and both banners gate the
// whole page and their errors are fatal, first error wins in that order. The
// list is subordinate: its error only degrades the page.
func Resolve(mounted bool, primary, mainBanner, mobileBanner, list Gate) Outcome {
	if !mounted {
		return Outcome{Status: StatusInitial}
	}

	out := Outcome{
		PageLoading: primary.Loading || mainBanner.Loading || mobileBanner.Loading,
		ListErr:     list.Err,
	}

	for _, gate := range []Gate{primary, mainBanner, mobileBanner} {
		if gate.Err != nil {
			out.Err = gate.Err
			out.Status = StatusFatalError
			return out
		}
	}

	switch {
	case out.PageLoading || list.Loading:
		out.Status = StatusLoading
	case list.Err != nil:
		out.Status = StatusPartialError
	default:
		out.Status = StatusSuccess
	}
	return out
}
