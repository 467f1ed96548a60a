// internal/app/resolver.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"silah_dispatcher/internal/domain/announcement"
	"silah_dispatcher/internal/domain/recipient"
)

var ErrUnknownTargetRule = fmt.Errorf("unknown announcement target rule")

// DefaultActiveWindow is the trailing window for the "active" target rule.
const DefaultActiveWindow = 7 * 24 * time.Hour

// Resolver expands a targeting rule into concrete recipient ids.
type Resolver struct {
	directory    recipient.Directory
	activeWindow time.Duration
}

func NewResolver(dir recipient.Directory, activeWindow time.Duration) *Resolver {
	if activeWindow <= 0 {
		activeWindow = DefaultActiveWindow
	}
	return &Resolver{directory: dir, activeWindow: activeWindow}
}

// Resolve returns the deduplicated recipient ids for rule. Custom ids are taken as given;
// whether they still exist is left to dispatch.
func (r *Resolver) Resolve(ctx context.Context, rule announcement.TargetRule, customIDs []string, now time.Time) ([]string, error) {
	var (
		ids []string
		err error
	)
	switch rule {
	case announcement.TargetAll:
		ids, err = r.directory.ListAllIDs(ctx)
	case announcement.TargetActive:
		ids, err = r.directory.ListActiveSince(ctx, now.Add(-r.activeWindow))
	case announcement.TargetPremium:
		ids, err = r.directory.ListPremiumIDs(ctx)
	case announcement.TargetCustom:
		ids = customIDs
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTargetRule, rule)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s recipients: %w", rule, err)
	}
	return dedupe(ids), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
