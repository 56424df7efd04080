package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c := Disabled()
	ctx := context.Background()

	if c.Enabled() {
		t.Fatalf("expected disabled cache")
	}
	if err := c.Put(ctx, "", "home", "<p>x</p>"); err != nil {
		t.Fatalf("expected no-op put, got %v", err)
	}
	if _, err := c.Get(ctx, "", "home"); !errors.Is(err, ErrCacheDisabled) {
		t.Fatalf("expected ErrCacheDisabled, got %v", err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("expected no-op invalidation, got %v", err)
	}
}

func TestMemoryCacheSeparatesTemplates(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Put(ctx, "", "home", "active"); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := c.Put(ctx, "Studio", "home", "studio"); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}

	tests := []struct {
		template string
		expected string
	}{
		{"", "active"},
		{" STUDIO ", "studio"},
	}
	for _, tt := range tests {
		got, err := c.Get(ctx, tt.template, "HOME")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.template, err)
		}
		if got != tt.expected {
			t.Fatalf("%q: expected %q, got %q", tt.template, tt.expected, got)
		}
	}
	if _, err := c.Get(ctx, "default", "home"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected explicit template to miss, got %v", err)
	}
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	if err := c.Put(ctx, "", "home", "old"); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("unexpected invalidate error: %v", err)
	}
	if _, err := c.Get(ctx, "", "home"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemory(time.Nanosecond)
	ctx := context.Background()

	if err := c.Put(ctx, "", "home", "html"); err != nil {
		t.Fatalf("unexpected put error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := c.Get(ctx, "", "home"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestPageKey(t *testing.T) {
	tests := []struct {
		generation int64
		template   string
		slug       string
		expected   string
	}{
		{0, "", "home", "site:page:0:active:home"},
		{4, "Studio", "About", "site:page:4:studio:about"},
	}
	for _, tt := range tests {
		if got := PageKey(tt.generation, tt.template, tt.slug); got != tt.expected {
			t.Errorf("PageKey(%d, %q, %q): expected %q, got %q", tt.generation, tt.template, tt.slug, tt.expected, got)
		}
	}
}
