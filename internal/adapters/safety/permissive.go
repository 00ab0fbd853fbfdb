package safety

import (
	"context"

	"github.com/alejandrodnm/scalpbot/internal/domain"
)

// Permissive is a safety checker that approves every token. Used when no
// external checker is configured; the risk gate still applies.
type Permissive struct{}

func NewPermissive() *Permissive { return &Permissive{} }

func (Permissive) Check(ctx context.Context, chain domain.Chain, tokenAddress string) (domain.SafetyVerdict, error) {
	return domain.SafetyVerdict{}, nil
}
