package route

import (
	"fmt"
	"strings"
)

// MalformedRouteError reports every problem found in a route document.
type MalformedRouteError struct {
	Problems []string
}

func (e *MalformedRouteError) Error() string {
	switch len(e.Problems) {
	case 0:
		return "malformed route"
	case 1:
		return "malformed route: " + e.Problems[0]
	}
	return fmt.Sprintf("malformed route: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func malformed(format string, args ...any) *MalformedRouteError {
	return &MalformedRouteError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// problems collects invariant violations under a path prefix.
type problems struct {
	list []string
}

func (p *problems) add(path, format string, args ...any) {
	p.list = append(p.list, path+": "+fmt.Sprintf(format, args...))
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &MalformedRouteError{Problems: p.list}
}
