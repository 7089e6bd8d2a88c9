package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/config"
	"github.com/fastygo/shoplist/internal/toast"
	"github.com/fastygo/shoplist/repository/bolt"
	"github.com/fastygo/shoplist/usecase/shoplist"
)

type harness struct {
	path string
	out  bytes.Buffer
	err  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{path: filepath.Join(t.TempDir(), "list.db")}
}

func (h *harness) opener(ctx context.Context, opts toast.Options) (*shoplist.Controller, func() error, error) {
	store, err := bolt.Open(h.path)
	if err != nil {
		return nil, nil, err
	}
	ctrl := shoplist.NewLocal(store, shoplist.Options{Toast: opts})
	return ctrl, closeAll(ctrl, store.Close), nil
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.err.Reset()
	root := NewRootCommand(&App{Open: h.opener, Out: &h.out, Err: &h.err})
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (h *harness) items(t *testing.T) []string {
	t.Helper()
	store, err := bolt.Open(h.path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	items, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		out = append(out, mark+item.Text)
	}
	return out
}

func TestAddListAndRemove(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "add", "Whole", "milk", "-q", "2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.run(t, "add", "Eggs"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := strings.Join(h.items(t), ","); got != " Whole milk, Eggs" {
		t.Fatalf("unexpected items: %q", got)
	}

	if err := h.run(t, "ls", "--filter", "milk"); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(h.out.String(), "Whole milk") || strings.Contains(h.out.String(), "Eggs") {
		t.Fatalf("unexpected ls output:\n%s", h.out.String())
	}
}

func TestDuplicateAddFails(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "add", "Milk"); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := h.run(t, "add", "  milk ")
	if !shoplist.IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if !strings.Contains(h.err.String(), `"milk" is already in your list`) {
		t.Fatalf("expected toast on stderr, got %q", h.err.String())
	}
}

func TestBlankAddIsRejected(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "add", "   "); err == nil {
		t.Fatal("expected error for blank text")
	}
	if len(h.items(t)) != 0 {
		t.Fatal("blank add must not store anything")
	}
}

func TestToggleEditAndRemoveByPrefix(t *testing.T) {
	h := newHarness(t)
	if err := h.run(t, "add", "Milk"); err != nil {
		t.Fatalf("add: %v", err)
	}

	store, _ := bolt.Open(h.path)
	items, _ := store.Load(context.Background())
	store.Close()
	prefix := items[0].ID[:6]

	if err := h.run(t, "toggle", prefix); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := h.items(t); got[0] != "xMilk" {
		t.Fatalf("expected completed, got %v", got)
	}

	if err := h.run(t, "edit", prefix, "Oat", "milk"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := h.items(t); got[0] != "xOat milk" {
		t.Fatalf("expected edited text, got %v", got)
	}

	if err := h.run(t, "rm", "does-not-exist"); err == nil {
		t.Fatal("expected error for unknown id")
	}
	if err := h.run(t, "rm", prefix); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if len(h.items(t)) != 0 {
		t.Fatal("expected empty list")
	}
}

func TestToggleAll(t *testing.T) {
	h := newHarness(t)
	for _, text := range []string{"Milk", "Eggs"} {
		if err := h.run(t, "add", text); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := h.run(t, "toggle-all"); err != nil {
		t.Fatalf("toggle-all: %v", err)
	}
	if got := strings.Join(h.items(t), ","); got != "xMilk,xEggs" {
		t.Fatalf("unexpected items: %q", got)
	}
	if err := h.run(t, "toggle-all"); err != nil {
		t.Fatalf("toggle-all: %v", err)
	}
	if got := strings.Join(h.items(t), ","); got != " Milk, Eggs" {
		t.Fatalf("unexpected items: %q", got)
	}
}

func TestResolveID(t *testing.T) {
	list := []domain.Item{{ID: "abc1"}, {ID: "abc2"}, {ID: "xyz"}}

	if _, err := resolveID(list, "abc"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	if got, err := resolveID(list, "abc2"); err != nil || got.ID != "abc2" {
		t.Fatalf("expected exact match, got %+v, %v", got, err)
	}
	if got, err := resolveID(list, "x"); err != nil || got.ID != "xyz" {
		t.Fatalf("expected prefix match, got %+v, %v", got, err)
	}
}

func TestDefaultOpenerRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{Client: config.ClientConfig{Backend: "carrier-pigeon"}}
	if _, _, err := DefaultOpener(cfg, nil)(context.Background(), toast.Options{}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
