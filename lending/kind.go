package lending

import (
	"fmt"
	"strings"
)

// CustomerKind distinguishes first-time borrowers from returning ones.
type CustomerKind int

const (
	// KindNew is a first-time customer (code "A").
	KindNew CustomerKind = iota + 1
	// KindReturning is a repeat customer (code "B").
	KindReturning
)

// ParseCustomerKind maps the "A"/"B" command code to a CustomerKind.
func ParseCustomerKind(code string) (CustomerKind, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return KindNew, nil
	case "B":
		return KindReturning, nil
	}
	return 0, fmt.Errorf("%w: %q, expected A or B", ErrInvalidCustomerKind, code)
}

// Code returns the command code of the kind.
func (k CustomerKind) Code() string {
	switch k {
	case KindNew:
		return "A"
	case KindReturning:
		return "B"
	}
	return "?"
}

func (k CustomerKind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindReturning:
		return "returning"
	}
	return "unknown"
}
