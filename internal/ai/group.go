package ai

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type CompleterEntry struct {
	Name      string
	Completer ICompleter
}

// groupCompleter tries each configured completer in order and falls through
// on error, so a secondary provider covers a primary outage.
type groupCompleter struct {
	items []CompleterEntry
}

func NewGroupCompleter(items []CompleterEntry) ICompleter {
	if len(items) == 0 {
		return nil
	}
	return &groupCompleter{items: items}
}

func (g *groupCompleter) Complete(ctx context.Context, system string, user string) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Completer == nil {
			continue
		}
		res, err := item.Completer.Complete(ctx, system, user)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("completer failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", ErrUnavailable
	}
	return "", lastErr
}
