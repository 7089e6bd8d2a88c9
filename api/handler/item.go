package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/shoplist/api/transport"
	"github.com/fastygo/shoplist/pkg/httpcontext"
	itemUC "github.com/fastygo/shoplist/usecase/item"
)

type ItemHandler struct {
	baseHandler
	uc *itemUC.UseCase
}

func NewItemHandler(uc *itemUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// ListItems returns the whole list as a bare JSON array.
func (h *ItemHandler) ListItems(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.ListItems(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondRaw(ctx, http.StatusOK, items)
}

func (h *ItemHandler) CreateItem(ctx *fasthttp.RequestCtx) {
	var req transport.ItemCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateItem(stdCtx, itemUC.CreateInput{Text: req.Text, Quantity: req.Quantity})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondRaw(ctx, http.StatusCreated, created)
}

func (h *ItemHandler) UpdateItem(ctx *fasthttp.RequestCtx) {
	id, ok := itemID(ctx)
	if !ok {
		h.respondInvalid(ctx, "missing item id")
		return
	}

	var req transport.ItemUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateItem(stdCtx, id, itemUC.UpdateInput{
		Text:      req.Text,
		Quantity:  req.Quantity,
		Completed: req.Completed,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondRaw(ctx, http.StatusOK, updated)
}

func (h *ItemHandler) DeleteItem(ctx *fasthttp.RequestCtx) {
	id, ok := itemID(ctx)
	if !ok {
		h.respondInvalid(ctx, "missing item id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteItem(stdCtx, id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func itemID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, ok := ctx.UserValue("id").(string)
	return id, ok && id != ""
}
