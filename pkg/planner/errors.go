package planner

import (
	"fmt"

	"github.com/elitr/pipeliner/pkg/endpoint"
)

// MultipleProducersError is raised by the sanity check when two or more
// edges target the same (node, ingress) pair.
type MultipleProducersError struct {
	Node      string
	Ingresses []string
}

func (e *MultipleProducersError) Error() string {
	return fmt.Sprintf("multiple incoming edges target node %s inputs %v; use a selector like octocat", e.Node, e.Ingresses)
}

// ErrExhaustedPool is returned when the endpoint pool cannot satisfy a
// planning-time allocation request.
var ErrExhaustedPool = endpoint.ErrExhausted
