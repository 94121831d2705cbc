package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable signals that a provider cannot serve requests (for example a
// missing api key). Callers treat it like any other upstream failure.
var ErrUnavailable = errors.New("ai provider unavailable")

type IProvider interface {
	Name() string
	Complete(ctx context.Context, model string, system string, user string) (string, error)
}

// ICompleter is a provider bound to a concrete model.
type ICompleter interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

type completer struct {
	provider IProvider
	model    string
}

func NewCompleter(p IProvider, model string) ICompleter {
	return &completer{provider: p, model: model}
}

func (c *completer) Complete(ctx context.Context, system string, user string) (string, error) {
	return c.provider.Complete(ctx, c.model, system, user)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
