// Package remote implements the account-scoped remote snippet
// collection. Records are keyed by (account id, snippet id) and carry
// creation/update timestamps that never cross into the sync engine.
package remote

import (
	"context"

	"github.com/mizutama/pochi/internal/snippet"
)

// Service is the remote snippet collection as seen by the sync engine.
// Bulk reads come back ordered by creation time, descending.
type Service interface {
	List(ctx context.Context, accountID string) ([]snippet.Snippet, error)
	Upsert(ctx context.Context, accountID string, s snippet.Snippet) error
	Delete(ctx context.Context, accountID, id string) error
	DeleteAll(ctx context.Context, accountID string) error
}
