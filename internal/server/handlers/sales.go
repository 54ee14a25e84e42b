package handlers

import (
	"net/http"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/server/filter"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

const salesPath = "/api/ventas"

// HandlePlaceSale handles POST /api/ventas: the sale is placed upstream
// first and recorded locally under the upstream idVenta. When the body
// names no user the sale is attributed to the caller.
// @Summary Place sale
// @Tags sales
// @Accept json
// @Produce json
// @Success 201 {object} response.Response{data=sales.Sale}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 502 {object} response.Response{error=response.Error}
// @Router /api/ventas [post].
func (h *Handlers) HandlePlaceSale(w http.ResponseWriter, r *http.Request) {
	var req sales.Request
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}

	if req.User == nil {
		if p := auth.FromContext(r.Context()); p != nil {
			buyer, err := h.accounts.Current(r.Context(), p.Login)
			if err != nil {
				response.ErrorFromType(w, r, err)
				return
			}
			req.User = &users.Ref{ID: buyer.ID, Login: buyer.Login}
		}
	}

	sale, _, err := h.checkout.Place(r.Context(), req)
	if err != nil {
		if h.metrics != nil {
			h.metrics.SaleFailed(err)
		}
		response.ErrorFromType(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SalePlaced()
	}
	response.Created(w, h.location(salesPath, sale.ID), sale)
}

// HandleListSales handles GET /api/ventas.
// @Summary List sales
// @Tags sales
// @Produce json
// @Success 200 {object} response.Response{data=[]sales.Sale}
// @Router /api/ventas [get].
func (h *Handlers) HandleListSales(w http.ResponseWriter, r *http.Request) {
	page, err := filter.ParsePage(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	items, total, err := h.store.Sales.List(r.Context(), page)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.Page(w, items, total)
}

// HandleListUserSales handles GET /api/ventas/user/{userId}/ventas.
// @Summary List a user's sales
// @Tags sales
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} response.Response{data=[]sales.Sale}
// @Router /api/ventas/user/{userId}/ventas [get].
func (h *Handlers) HandleListUserSales(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	items, err := h.store.Sales.ListByUser(r.Context(), userID)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, items)
}

// HandleGetSale handles GET /api/ventas/{id}.
func (h *Handlers) HandleGetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	sale, err := h.store.Sales.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, sale)
}

// HandleUpdateSale handles PUT /api/ventas/{id}.
func (h *Handlers) HandleUpdateSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	var sale sales.Sale
	if err := decodeJSON(w, r, &sale); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.saveSale(w, r, id, &sale)
}

// HandlePatchSale handles PATCH /api/ventas/{id} with a JSON merge patch.
func (h *Handlers) HandlePatchSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	patch, err := readBody(w, r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	current, err := h.store.Sales.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	sale, err := patchInto(current, patch)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.saveSale(w, r, id, sale)
}

// HandleDeleteSale handles DELETE /api/ventas/{id}. Only the local record
// is removed; the upstream sale stands.
func (h *Handlers) HandleDeleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := h.store.Sales.Delete(r.Context(), id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handlers) saveSale(w http.ResponseWriter, r *http.Request, id int64, sale *sales.Sale) {
	if err := checkBodyID(sale.ID, id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if sale.SaleDate.IsZero() {
		response.ErrorFromType(w, r, errors.NewValidationError("fechaVenta", nil, "is required"))
		return
	}
	// The owner travels as a reference in JSON.
	sale.UserID = nil
	if sale.User != nil && sale.User.ID > 0 {
		if _, err := h.store.Users.Get(r.Context(), sale.User.ID); err != nil {
			response.ErrorFromType(w, r, err)
			return
		}
		sale.UserID = ptr.Int64(sale.User.ID)
	}
	if err := h.store.Sales.Update(r.Context(), sale); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, sale)
}
