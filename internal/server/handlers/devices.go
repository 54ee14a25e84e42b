package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/storefront/internal/server/cache"
	"github.com/agentstation/storefront/internal/server/filter"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/catalog"
)

const devicesPath = "/api/dispositivos"

// allDevices returns the full device listing, served from cache when warm.
func (h *Handlers) allDevices(ctx context.Context) ([]catalog.Device, error) {
	return cache.Load(ctx, h.cache, devicesCacheKey, h.store.Devices.ListAll)
}

// HandleListDevices handles GET /api/dispositivos.
// @Summary List devices
// @Description List devices with their nested collections, filtered, sorted and paged
// @Tags devices
// @Produce json
// @Param codigo query string false "Exact code"
// @Param moneda query string false "Currency"
// @Param nombre_contains query string false "Name substring"
// @Param min_precio query number false "Minimum base price"
// @Param max_precio query number false "Maximum base price"
// @Param sort query string false "id, codigo, nombre or precioBase, optionally ',desc'"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} response.Response{data=[]catalog.Device}
// @Router /api/dispositivos [get].
func (h *Handlers) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	f, err := filter.ParseDeviceFilter(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	page, err := filter.ParsePage(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}

	devices, err := h.allDevices(r.Context())
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if !f.IsZero() {
		devices = f.Apply(devices)
	}

	response.Page(w, filter.Slice(devices, page), int64(len(devices)))
}

// HandleGetDevice handles GET /api/dispositivos/{id}.
// @Summary Get device
// @Tags devices
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} response.Response{data=catalog.Device}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/dispositivos/{id} [get].
func (h *Handlers) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	device, err := h.store.Devices.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, device)
}

// HandleCreateDevice handles POST /api/dispositivos. Device ids are
// assigned upstream, so the body must carry one.
// @Summary Create device
// @Tags devices
// @Accept json
// @Produce json
// @Success 201 {object} response.Response{data=catalog.Device}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/dispositivos [post].
func (h *Handlers) HandleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device catalog.Device
	if err := decodeJSON(w, r, &device); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := device.Validate(); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	created, err := h.store.Devices.Create(r.Context(), device)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.InvalidateDevices()
	response.Created(w, h.location(devicesPath, created.ID), created)
}

// HandleUpdateDevice handles PUT /api/dispositivos/{id}.
// @Summary Replace device
// @Tags devices
// @Accept json
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} response.Response{data=catalog.Device}
// @Router /api/dispositivos/{id} [put].
func (h *Handlers) HandleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	var device catalog.Device
	if err := decodeJSON(w, r, &device); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.saveDevice(w, r, id, device)
}

// HandlePatchDevice handles PATCH /api/dispositivos/{id} with a JSON merge
// patch. Nested collections in the patch replace the stored ones.
// @Summary Patch device
// @Tags devices
// @Accept json
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} response.Response{data=catalog.Device}
// @Router /api/dispositivos/{id} [patch].
func (h *Handlers) HandlePatchDevice(w http.ResponseWriter, r *http.Request) {
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
	current, err := h.store.Devices.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	device, err := patchInto(current, patch)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.saveDevice(w, r, id, *device)
}

// HandleDeleteDevice handles DELETE /api/dispositivos/{id}.
// @Summary Delete device
// @Tags devices
// @Param id path int true "Device ID"
// @Success 204
// @Router /api/dispositivos/{id} [delete].
func (h *Handlers) HandleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := h.store.Devices.Delete(r.Context(), id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.InvalidateDevices()
	response.NoContent(w)
}

func (h *Handlers) saveDevice(w http.ResponseWriter, r *http.Request, id int64, device catalog.Device) {
	if err := checkBodyID(device.ID, id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := device.Validate(); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	updated, err := h.store.Devices.Update(r.Context(), device)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	h.InvalidateDevices()
	response.OK(w, updated)
}
