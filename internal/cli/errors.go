package cli

import (
	"fmt"
	"strings"
)

type notFoundError struct {
	kind string
	ref  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.ref)
}

type ambiguousError struct {
	kind    string
	ref     string
	matches []string
}

func (e ambiguousError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous; use one of the ids: %s", e.kind, e.ref, strings.Join(e.matches, ", "))
}
