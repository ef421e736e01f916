package nectar

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderAsyncAwaitsInOrder(t *testing.T) {
	eng := setupTestEngine(t)
	var calls []string
	if err := eng.RegisterAsyncFunction("rec", func(ctx context.Context, args ...any) (any, error) {
		s := toString(args[0])
		calls = append(calls, s)
		return s, nil
	}); err != nil {
		t.Fatalf("RegisterAsyncFunction failed: %v", err)
	}

	out, err := eng.RenderAsync(context.Background(), "{{@rec('a')}}{{@rec('b')}}{{@rec('c')}}", nil)
	if err != nil {
		t.Fatalf("RenderAsync failed: %v", err)
	}
	if out != "abc" {
		t.Errorf("got %q", out)
	}
	if got := strings.Join(calls, ","); got != "a,b,c" {
		t.Errorf("calls must resolve in document order, got %s", got)
	}
}

func TestRenderAsyncMixedFunctions(t *testing.T) {
	eng := setupTestEngine(t)
	if err := eng.RegisterAsyncFunction("fetch", func(ctx context.Context, args ...any) (any, error) {
		return "remote:" + toString(args[0]), nil
	}); err != nil {
		t.Fatalf("RegisterAsyncFunction failed: %v", err)
	}

	out, err := eng.RenderAsync(context.Background(), "{{@upper(@fetch('id'))}}", nil)
	if err != nil {
		t.Fatalf("RenderAsync failed: %v", err)
	}
	if out != "REMOTE:ID" {
		t.Errorf("synchronous helpers still work under RenderAsync, got %q", out)
	}
}

func TestAsyncOnlyFunctionInSyncRender(t *testing.T) {
	eng := setupTestEngine(t)
	if err := eng.RegisterAsyncFunction("fetch", func(ctx context.Context, args ...any) (any, error) {
		return "x", nil
	}); err != nil {
		t.Fatalf("RegisterAsyncFunction failed: %v", err)
	}

	_, err := eng.Render("{{@fetch('id')}}", nil)
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != ErrRender {
		t.Fatalf("expected a rendering error, got %v", err)
	}
	if !strings.Contains(terr.Message, "asynchronous") {
		t.Errorf("message %q", terr.Message)
	}
}

func TestAsyncFallbacks(t *testing.T) {
	eng := setupTestEngine(t)
	eng.SetConfig(&Config{Fallbacks: map[string]any{
		"fetch":  "cached",
		"banner": "<hi>",
	}})
	failing := func(ctx context.Context, args ...any) (any, error) {
		return nil, errors.New("upstream down")
	}
	for _, name := range []string{"fetch", "banner", "other"} {
		if err := eng.RegisterAsyncFunction(name, failing); err != nil {
			t.Fatalf("RegisterAsyncFunction(%s) failed: %v", name, err)
		}
	}

	t.Run("Substituted", func(t *testing.T) {
		out, err := eng.RenderAsync(context.Background(), "[{{@fetch('id')}}]", nil)
		if err != nil {
			t.Fatalf("a configured fallback should absorb the failure: %v", err)
		}
		if out != "[cached]" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("NotEscaped", func(t *testing.T) {
		out, err := eng.RenderAsync(context.Background(), "{{@banner()}}", nil)
		if err != nil {
			t.Fatalf("RenderAsync failed: %v", err)
		}
		if out != "<hi>" {
			t.Errorf("fallbacks take the place of call results, which never escape: %q", out)
		}
	})

	t.Run("NoFallback", func(t *testing.T) {
		out, err := eng.RenderAsync(context.Background(), "x{{@other()}}", nil)
		if err == nil {
			t.Fatal("expected an error when no fallback is configured")
		}
		if out != "" {
			t.Errorf("got partial output %q", out)
		}
	})

	t.Run("SyncFailureIsNotAbsorbed", func(t *testing.T) {
		if err := eng.RegisterFunction("cached", func(args ...any) (any, error) {
			return nil, errors.New("broken")
		}); err != nil {
			t.Fatalf("RegisterFunction failed: %v", err)
		}
		eng.SetConfig(&Config{Fallbacks: map[string]any{"cached": "nope"}})
		if _, err := eng.RenderAsync(context.Background(), "{{@cached()}}", nil); err == nil {
			t.Fatal("fallbacks only cover asynchronous calls")
		}
	})
}

func TestRenderAsyncCancellation(t *testing.T) {
	eng := setupTestEngine(t)
	if err := eng.RegisterAsyncFunction("slow", func(ctx context.Context, args ...any) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return "done", nil
		}
	}); err != nil {
		t.Fatalf("RegisterAsyncFunction failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.RenderAsync(ctx, "{{@slow()}}", nil)
	if err == nil {
		t.Fatal("expected an error from the cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("the context error should be reachable, got %v", err)
	}
}

// testFeed exposes one async-only member and one that always fails.
type testFeed struct{}

func (testFeed) Capabilities() CapabilitySet {
	return CapabilitySet{
		"latest": {AsyncFn: func(ctx context.Context, args ...any) (any, error) {
			return "story", nil
		}},
		"refresh": {AsyncFn: func(ctx context.Context, args ...any) (any, error) {
			return nil, errors.New("feed offline")
		}},
	}
}

func TestAsyncMethods(t *testing.T) {
	eng := setupTestEngine(t)
	data := map[string]any{"feed": testFeed{}}

	t.Run("Await", func(t *testing.T) {
		out, err := eng.RenderAsync(context.Background(), "{{feed.latest()}}", data)
		if err != nil {
			t.Fatalf("RenderAsync failed: %v", err)
		}
		if out != "story" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("SyncRenderRejects", func(t *testing.T) {
		_, err := eng.Render("{{feed.latest()}}", data)
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != ErrRender {
			t.Fatalf("expected a rendering error, got %v", err)
		}
	})

	t.Run("FallbackByName", func(t *testing.T) {
		eng.SetConfig(&Config{Fallbacks: map[string]any{"refresh": "stale"}})
		out, err := eng.RenderAsync(context.Background(), "{{feed.refresh()}}", data)
		if err != nil {
			t.Fatalf("RenderAsync failed: %v", err)
		}
		if out != "stale" {
			t.Errorf("got %q", out)
		}
	})

	t.Run("FailureWithoutFallback", func(t *testing.T) {
		eng.SetConfig(nil)
		_, err := eng.RenderAsync(context.Background(), "{{feed.refresh()}}", data)
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != ErrMethod {
			t.Fatalf("expected a method-invocation error, got %v", err)
		}
	})
}
