package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeCache struct{ enabled, healthy bool }

func (c fakeCache) Enabled() bool                      { return c.enabled }
func (c fakeCache) IsHealthy(ctx context.Context) bool { return c.healthy }

func TestCheckBasic(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	s := NewHealthChecker(ok, nil, nil).CheckBasic(context.Background())
	if s.Status != statusHealthy || s.Cache.Status != statusDisabled || s.Storage.Status != statusDisabled {
		t.Fatalf("unexpected status %+v", s)
	}

	s = NewHealthChecker(ok, fakeCache{enabled: true}, down).CheckBasic(context.Background())
	if s.Status != statusHealthy {
		t.Fatalf("cache and storage must not fail readiness: %+v", s)
	}
	if s.Cache.Status != statusUnhealthy || s.Storage.Status != statusUnhealthy {
		t.Fatalf("degraded components not reported: %+v", s)
	}

	s = NewHealthChecker(down, fakeCache{enabled: true, healthy: true}, nil).CheckBasic(context.Background())
	if s.Status != statusUnhealthy || s.Database.Status != statusUnhealthy {
		t.Fatalf("database failure must be unhealthy: %+v", s)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := formatBytes(512 * 1024 * 1024); got != "512.0 MB" {
		t.Fatalf("got %q", got)
	}
	if got := formatBytes(3 * 1024 * 1024 * 1024); got != "3.0 GB" {
		t.Fatalf("got %q", got)
	}
}
