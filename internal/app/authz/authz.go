// Package authz resolves which ledger capabilities an identity holds.
// Member and leader are independent predicates; which actions they gate
// is the state machine's concern.
package authz

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/taskmirror/taskmirror/internal/domain"
	"github.com/taskmirror/taskmirror/internal/ledger"
)

// Resolver answers capability questions against the ledger.
type Resolver struct {
	gw ledger.Gateway
}

// NewResolver creates a capability resolver.
func NewResolver(gw ledger.Gateway) *Resolver {
	return &Resolver{gw: gw}
}

// Resolve runs both role checks concurrently. A false/false result only
// comes from two explicit negative answers; any transport failure
// propagates as an error, never as a silent "unauthorized".
func (r *Resolver) Resolve(ctx context.Context, id domain.Identity) (domain.Capabilities, error) {
	var caps domain.Capabilities

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leader, err := r.gw.HasLeaderRole(ctx, id)
		if err != nil {
			return fmt.Errorf("leader check: %w", err)
		}
		caps.IsLeader = leader
		return nil
	})
	g.Go(func() error {
		member, err := r.gw.HasMemberRole(ctx, id)
		if err != nil {
			return fmt.Errorf("member check: %w", err)
		}
		caps.IsMember = member
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Capabilities{}, err
	}
	return caps, nil
}
