package rpc

import (
	"context"
	"fmt"
	"strings"
)

// Kind distinguishes read-only queries (HTTP GET) from mutations (HTTP POST).
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

// Access is the guard applied before a procedure runs.
type Access int

const (
	// Public procedures need no token.
	Public Access = iota
	// Authenticated procedures need a valid bearer token.
	Authenticated
	// Entitled procedures also need an active subscription or running trial.
	Entitled
)

// Procedure is one typed endpoint served over gRPC and HTTP.
type Procedure struct {
	Router string
	Name   string
	Kind   Kind
	Access Access

	newInput func() any
	invoke   func(ctx context.Context, in any) (any, error)
}

// Path is the dotted procedure path, e.g. "subscription.getStatus".
func (p Procedure) Path() string {
	if p.Router == "" {
		return p.Name
	}
	return p.Router + "." + p.Name
}

// Query declares a read-only procedure.
func Query[In, Out any](router, name string, access Access, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(router, name, KindQuery, access, fn)
}

// Mutation declares a state-changing procedure.
func Mutation[In, Out any](router, name string, access Access, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	return newProcedure(router, name, KindMutation, access, fn)
}

func newProcedure[In, Out any](router, name string, kind Kind, access Access, fn func(ctx context.Context, in In) (Out, error)) Procedure {
	if strings.ContainsAny(name, "./") || name == "" {
		panic(fmt.Sprintf("rpc: invalid procedure name %q", name))
	}
	return Procedure{
		Router:   router,
		Name:     name,
		Kind:     kind,
		Access:   access,
		newInput: func() any { return new(In) },
		invoke: func(ctx context.Context, in any) (any, error) {
			return fn(ctx, *(in.(*In)))
		},
	}
}

// Empty is the input of procedures that take none.
type Empty struct{}
