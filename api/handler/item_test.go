package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/shoplist/api/transport"
	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/infrastructure/monitor"
	"github.com/fastygo/shoplist/pkg/httpcontext"
	"github.com/fastygo/shoplist/repository"
	"github.com/fastygo/shoplist/repository/memory"
	itemUC "github.com/fastygo/shoplist/usecase/item"
)

func newItemHandler(repo repository.ItemRepository) *ItemHandler {
	return NewItemHandler(itemUC.New(repo, nil, nil), httpcontext.NewAdapter(0), nil)
}

func request(method, body, id string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetBodyString(body)
	if id != "" {
		ctx.SetUserValue("id", id)
	}
	return ctx
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, ctx.Response.Body())
	}
	return env
}

func TestListItemsReturnsBareArray(t *testing.T) {
	h := newItemHandler(memory.NewItemRepository())
	ctx := request(http.MethodGet, "", "")
	h.ListItems(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Body()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestCreateItem(t *testing.T) {
	h := newItemHandler(memory.NewItemRepository())

	ctx := request(http.MethodPost, `{"text":"  Milk ","quantity":2.9}`, "")
	h.CreateItem(ctx)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var item domain.Item
	if err := json.Unmarshal(ctx.Response.Body(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID == "" || item.Text != "Milk" || item.Quantity != 2 || item.Completed || item.CompletedAt != nil {
		t.Fatalf("unexpected item: %+v", item)
	}

	ctx = request(http.MethodPost, `{"text":"Eggs"}`, "")
	h.CreateItem(ctx)
	if err := json.Unmarshal(ctx.Response.Body(), &item); err != nil || item.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %+v (%v)", item, err)
	}
}

func TestCreateItemRejectsBadInput(t *testing.T) {
	h := newItemHandler(memory.NewItemRepository())

	for _, body := range []string{`{"text":"   "}`, `not json`, `{"text":"x","quantity":"two"}`} {
		ctx := request(http.MethodPost, body, "")
		h.CreateItem(ctx)
		if ctx.Response.StatusCode() != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, ctx.Response.StatusCode())
		}
		if env := decodeEnvelope(t, ctx); env.Code != string(domain.ErrCodeInvalid) {
			t.Fatalf("body %q: unexpected envelope %+v", body, env)
		}
	}
}

func TestUpdateItem(t *testing.T) {
	h := newItemHandler(memory.NewItemRepository(domain.Item{ID: "a", Text: "Milk", Quantity: 1}))

	ctx := request(http.MethodPut, `{"completed":true}`, "a")
	h.UpdateItem(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var item domain.Item
	if err := json.Unmarshal(ctx.Response.Body(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !item.Completed || item.CompletedAt == nil || item.Text != "Milk" {
		t.Fatalf("unexpected item: %+v", item)
	}

	ctx = request(http.MethodPut, `{"text":"Eggs"}`, "missing")
	h.UpdateItem(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}

	ctx = request(http.MethodPut, `{"text":"   "}`, "missing")
	h.UpdateItem(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id with blank text, got %d", ctx.Response.StatusCode())
	}

	ctx = request(http.MethodPut, `{"text":"   "}`, "a")
	h.UpdateItem(ctx)
	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", ctx.Response.StatusCode())
	}
}

func TestDeleteItem(t *testing.T) {
	h := newItemHandler(memory.NewItemRepository(domain.Item{ID: "a", Text: "Milk", Quantity: 1}))

	ctx := request(http.MethodDelete, "", "a")
	h.DeleteItem(ctx)
	if ctx.Response.StatusCode() != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", ctx.Response.StatusCode())
	}

	ctx = request(http.MethodDelete, "", "a")
	h.DeleteItem(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

type failingRepo struct {
	repository.ItemRepository
}

func (failingRepo) List(context.Context) ([]domain.Item, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	h := newItemHandler(failingRepo{})
	ctx := request(http.MethodGet, "", "")
	h.ListItems(ctx)

	if ctx.Response.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", ctx.Response.StatusCode())
	}
	if env := decodeEnvelope(t, ctx); env.Message() != "internal error" {
		t.Fatalf("unexpected error message: %q", env.Message())
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrItemNotFound, http.StatusNotFound},
		{domain.ErrEmptyText, http.StatusBadRequest},
		{domain.NewError(domain.ErrCodeConflict, "dup"), http.StatusConflict},
		{domain.NewError(domain.ErrCodeTooMany, "slow down"), http.StatusTooManyRequests},
		{domain.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if status, _ := mapError(tt.err); status != tt.status {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.status, status)
		}
	}
}

type staticStatus struct {
	online bool
}

func (s staticStatus) GetStatus() monitor.Status {
	return monitor.Status{Components: map[string]bool{"items": s.online}, Buffer: true, BufferSize: 2}
}

func (s staticStatus) IsOnline() bool { return s.online }

func TestHealthCheck(t *testing.T) {
	ctx := request(http.MethodGet, "", "")
	NewHealthHandler(nil, "memory", nil, nil).Check(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200 without monitor, got %d", ctx.Response.StatusCode())
	}

	ctx = request(http.MethodGet, "", "")
	NewHealthHandler(staticStatus{online: false}, "postgres", nil, nil).Check(ctx)
	if ctx.Response.StatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is down, got %d", ctx.Response.StatusCode())
	}
	if env := decodeEnvelope(t, ctx); env.Code != "DEGRADED" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
