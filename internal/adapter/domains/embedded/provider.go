// Package embeddeddomains serves the domain files compiled into the binary.
package embeddeddomains

import (
	"context"
	"errors"
	"strings"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/pddl"
)

type Provider struct{}

func (Provider) Names(context.Context) ([]string, error) {
	return pddl.DomainFiles(), nil
}

func (Provider) File(_ context.Context, name string) ([]byte, error) {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, ports.ErrInvalidPath
	}
	b, err := pddl.ReadDomain(name)
	if errors.Is(err, pddl.ErrUnknownDomain) {
		return nil, ports.ErrNotFound
	}
	return b, err
}
