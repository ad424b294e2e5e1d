package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/regkit/logger"
)

type nopClient struct{}

func (nopClient) AddInstance(ctx context.Context, name, ip string, port int, ephemeral bool, metadata map[string]string) error {
	return nil
}
func (nopClient) RemoveInstance(ctx context.Context, name, ip string, port int) error { return nil }
func (nopClient) SendHeartbeat(ctx context.Context, name, ip string, port int) error  { return nil }
func (nopClient) Close() error                                                        { return nil }

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "nope"}, nil, logger.Nop())
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
}

func TestNewClientRegisteredProvider(t *testing.T) {
	RegisterProviderFactory("test-provider", func(cfg Config, providerCfg any, log *logger.Logger) (Client, error) {
		if cfg.Address != "127.0.0.1:8848" {
			t.Errorf("factory got wrong address: %q", cfg.Address)
		}
		return nopClient{}, nil
	})

	c, err := NewClient(Config{Provider: "test-provider", Address: "127.0.0.1:8848"}, nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil client")
	}
}

func TestInstanceID(t *testing.T) {
	if got := InstanceID("billing", "10.0.0.1", 8080); got != "billing-10.0.0.1-8080" {
		t.Errorf("unexpected instance id: %q", got)
	}
}
