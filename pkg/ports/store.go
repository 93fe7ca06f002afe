package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// ProjectStore persists project documents, the export/import format of
// variables.Manager, keyed by project or session id.
type ProjectStore interface {
	// Save stores the document under id, replacing any previous version.
	Save(ctx context.Context, id string, doc *domain.ProjectDocument) error

	// Load returns the document stored under id.
	// Returns domain.ErrProjectNotFound if nothing is stored.
	Load(ctx context.Context, id string) (*domain.ProjectDocument, error)

	// Delete removes the document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids currently stored.
	List(ctx context.Context) ([]string, error)
}
