package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type redactMiddleware struct {
	next     ports.ProjectStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that drops the live values of
// variables whose id matches any pattern before saving. Those variables
// come back at their default on the next load.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, id string, doc *domain.ProjectDocument) error {
	// Work on a copy so the caller's document keeps its values.
	cloned := doc.Clone()
	for varID := range cloned.Values {
		if m.matches(varID) {
			delete(cloned.Values, varID)
		}
	}
	return m.next.Save(ctx, id, cloned)
}

func (m *redactMiddleware) matches(varID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(varID) {
			return true
		}
	}
	return false
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.ProjectDocument, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
