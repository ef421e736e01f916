package nectar

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
)

func setupTestRegistry(tb testing.TB) *FuncRegistry {
	tb.Helper()
	r := NewFuncRegistry()
	if err := registerBuiltins(r); err != nil {
		tb.Fatalf("registerBuiltins failed: %v", err)
	}
	return r
}

func TestRegistryRegister(t *testing.T) {
	r := setupTestRegistry(t)
	echo := func(args ...any) (any, error) { return args[0], nil }

	if err := r.Register("echo", echo); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !r.Has("echo") {
		t.Error("Has should report the new function")
	}
	if r.IsBuiltin("echo") {
		t.Error("a custom function is not a built-in")
	}

	t.Run("Duplicate", func(t *testing.T) {
		err := r.Register("echo", func(args ...any) (any, error) { return "other", nil })
		if err == nil || !strings.Contains(err.Error(), "already registered") {
			t.Fatalf("got %v", err)
		}
		res, err := r.Call("echo", []any{"kept"})
		if err != nil || res != "kept" {
			t.Errorf("the original registration must survive, got %v, %v", res, err)
		}
	})

	t.Run("SharedNamespace", func(t *testing.T) {
		if err := r.RegisterAsync("echo", func(ctx context.Context, args ...any) (any, error) {
			return nil, nil
		}); err == nil {
			t.Error("sync and async functions share one namespace")
		}
		if err := r.Register("upper", echo); err == nil {
			t.Error("built-in names are taken too")
		}
	})

	t.Run("NilFunc", func(t *testing.T) {
		if err := r.Register("nilfn", nil); err == nil {
			t.Error("a nil function must be rejected")
		}
		if err := r.RegisterAsync("nilfn", nil); err == nil {
			t.Error("a nil async function must be rejected")
		}
	})
}

func TestRegistryHasAsync(t *testing.T) {
	r := setupTestRegistry(t)
	if err := r.RegisterAsync("fetch", func(ctx context.Context, args ...any) (any, error) {
		return "x", nil
	}); err != nil {
		t.Fatalf("RegisterAsync failed: %v", err)
	}

	if r.Has("fetch") {
		t.Error("an async-only name is not a synchronous function")
	}
	if !r.HasAsync("fetch") {
		t.Error("HasAsync should report it")
	}
	if r.HasAsync("upper") {
		t.Error("built-ins are synchronous")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := setupTestRegistry(t)
	if err := r.Register("echo", func(args ...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !r.Unregister("echo") {
		t.Error("removing a present name should report true")
	}
	if r.Unregister("echo") {
		t.Error("removing an absent name should report false")
	}
	if !r.Unregister("upper") {
		t.Error("built-ins can be removed")
	}
	if r.Has("upper") {
		t.Error("a removed built-in is gone until ClearCustom")
	}
}

func TestRegistryClearCustom(t *testing.T) {
	r := setupTestRegistry(t)
	if err := r.Register("echo", func(args ...any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	r.Unregister("upper")

	r.ClearCustom()

	if r.Has("echo") {
		t.Error("custom functions should be gone")
	}
	if !r.Has("upper") {
		t.Error("removed built-ins should be restored")
	}
	if !r.IsBuiltin("upper") {
		t.Error("restored entries keep their built-in flag")
	}
}

func TestRegistryNames(t *testing.T) {
	r := setupTestRegistry(t)
	names := r.Names()
	if len(names) == 0 {
		t.Fatal("the built-in set should not be empty")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names should be sorted: %v", names)
	}
	found := false
	for _, n := range names {
		if n == "formatDate" {
			found = true
		}
	}
	if !found {
		t.Error("formatDate should be listed")
	}
}

func TestRegistryCall(t *testing.T) {
	r := setupTestRegistry(t)

	t.Run("Unknown", func(t *testing.T) {
		_, err := r.Call("nope", nil)
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != ErrRender {
			t.Fatalf("got %v", err)
		}
		if !strings.Contains(terr.Message, `unknown function "nope"`) {
			t.Errorf("message %q", terr.Message)
		}
	})

	t.Run("Suggestion", func(t *testing.T) {
		_, err := r.Call("uper", nil)
		if err == nil || !strings.Contains(err.Error(), `did you mean "upper"?`) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("AsyncOnly", func(t *testing.T) {
		if err := r.RegisterAsync("fetch", func(ctx context.Context, args ...any) (any, error) {
			return "x", nil
		}); err != nil {
			t.Fatalf("RegisterAsync failed: %v", err)
		}
		_, err := r.Call("fetch", nil)
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != ErrRender {
			t.Fatalf("got %v", err)
		}
		if !strings.Contains(terr.Message, "asynchronous") {
			t.Errorf("message %q", terr.Message)
		}
	})

	t.Run("FailureWrapped", func(t *testing.T) {
		boom := errors.New("boom")
		if err := r.Register("explode", func(args ...any) (any, error) {
			return nil, boom
		}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		_, err := r.Call("explode", nil)
		var terr *Error
		if !errors.As(err, &terr) || terr.Kind != ErrFunction {
			t.Fatalf("got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Error("the cause should unwrap")
		}
	})

	t.Run("Result", func(t *testing.T) {
		res, err := r.Call("upper", []any{"go"})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if res != "GO" {
			t.Errorf("got %v", res)
		}
	})
}

func TestRegistryCallAsync(t *testing.T) {
	r := setupTestRegistry(t)
	type key struct{}
	if err := r.RegisterAsync("fetch", func(ctx context.Context, args ...any) (any, error) {
		return ctx.Value(key{}), nil
	}); err != nil {
		t.Fatalf("RegisterAsync failed: %v", err)
	}

	ctx := context.WithValue(context.Background(), key{}, "carried")
	res, err := r.CallAsync(ctx, "fetch", nil)
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}
	if res != "carried" {
		t.Errorf("the context should reach the function, got %v", res)
	}

	res, err = r.CallAsync(ctx, "upper", []any{"go"})
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}
	if res != "GO" {
		t.Errorf("synchronous functions work through CallAsync too, got %v", res)
	}
}
