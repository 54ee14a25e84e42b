package handlers

import (
	"net/http"

	"github.com/agentstation/storefront/internal/server/filter"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/pkg/errors"
)

// Resource serves CRUD endpoints for one locally owned catalog entity.
type Resource[T any] struct {
	h        *Handlers
	table    *store.Table[T]
	path     string
	idOf     func(*T) *int64
	validate func(T) error
}

func newResource[T any](h *Handlers, table *store.Table[T], path string, idOf func(*T) *int64, validate func(T) error) *Resource[T] {
	return &Resource[T]{h: h, table: table, path: path, idOf: idOf, validate: validate}
}

// Path returns the collection path the resource is served under.
func (rs *Resource[T]) Path() string {
	return rs.path
}

// HandleList handles GET {path}?page=&size=.
func (rs *Resource[T]) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := filter.ParsePage(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	items, total, err := rs.table.List(r.Context(), page)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.Page(w, items, total)
}

// HandleGet handles GET {path}/{id}.
func (rs *Resource[T]) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	item, err := rs.table.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, item)
}

// HandleCreate handles POST {path}. The id is assigned by the store.
func (rs *Resource[T]) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := decodeJSON(w, r, &item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if id := *rs.idOf(&item); id != 0 {
		response.ErrorFromType(w, r, errors.NewValidationError("id", id, "a new "+rs.table.Resource()+" cannot already have an ID"))
		return
	}
	if err := rs.validate(item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := rs.table.Create(r.Context(), &item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	rs.h.InvalidateDevices()
	response.Created(w, rs.h.location(rs.path, *rs.idOf(&item)), item)
}

// HandleUpdate handles PUT {path}/{id}.
func (rs *Resource[T]) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	var item T
	if err := decodeJSON(w, r, &item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	rs.save(w, r, id, &item)
}

// HandlePatch handles PATCH {path}/{id} with a JSON merge patch.
func (rs *Resource[T]) HandlePatch(w http.ResponseWriter, r *http.Request) {
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
	current, err := rs.table.Get(r.Context(), id)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	item, err := patchInto(current, patch)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	rs.save(w, r, id, item)
}

// HandleDelete handles DELETE {path}/{id}.
func (rs *Resource[T]) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := rs.table.Delete(r.Context(), id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	rs.h.InvalidateDevices()
	response.NoContent(w)
}

func (rs *Resource[T]) save(w http.ResponseWriter, r *http.Request, id int64, item *T) {
	if err := checkBodyID(*rs.idOf(item), id); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := rs.validate(*item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := rs.table.Update(r.Context(), id, item); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	rs.h.InvalidateDevices()
	response.OK(w, item)
}

// checkBodyID requires the body id to be present and equal to the path id.
func checkBodyID(bodyID, pathID int64) error {
	if bodyID == 0 {
		return errors.NewValidationError("id", nil, "id is required")
	}
	if bodyID != pathID {
		return errors.NewValidationError("id", bodyID, "id does not match the path")
	}
	return nil
}
