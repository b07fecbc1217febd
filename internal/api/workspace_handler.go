package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/console"
	"github.com/ebrhq/backoffice/internal/validate"
	"github.com/ebrhq/backoffice/internal/workspace"
)

// workspaceHandler serves the dashboard pages of the active company.
type workspaceHandler struct {
	now func() time.Time
}

func (h *workspaceHandler) fail(w http.ResponseWriter, c *console.Console, err error) {
	writeFailure(w, err, c.Flow.State())
}

// pathID parses the {id} URL parameter, answering 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// page reads skip and limit from the query string.
func page(w http.ResponseWriter, r *http.Request) (workspace.Page, bool) {
	var p workspace.Page
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_skip", "skip must be a non-negative integer")
			return p, false
		}
		p.Skip = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return p, false
		}
		p.Limit = n
	}
	return p, true
}

// ListEmployees handles GET /api/v1/employees.
func (h *workspaceHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	p, ok := page(w, r)
	if !ok {
		return
	}
	list, err := c.Work.Employees(r.Context(), p)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": list})
}

// CreateEmployee handles POST /api/v1/employees.
func (h *workspaceHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.EmployeeForm
	if !decode(w, r, &form) {
		return
	}
	e, err := c.Work.CreateEmployee(r.Context(), form)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "create", "employee", strconv.FormatInt(e.ID, 10), "role", e.Role)
	writeJSON(w, http.StatusCreated, e)
}

// UpdateEmployee handles PUT /api/v1/employees/{id}.
func (h *workspaceHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workspace.EmployeeUpdate
	if !decode(w, r, &in) {
		return
	}
	e, err := c.Work.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "update", "employee", strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusOK, e)
}

// DeleteEmployee handles DELETE /api/v1/employees/{id}.
func (h *workspaceHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.Work.DeleteEmployee(r.Context(), id); err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "delete", "employee", strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleJournee handles POST /api/v1/employees/{id}/journee.
func (h *workspaceHandler) ToggleJournee(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	open, err := c.Work.ToggleJournee(r.Context(), id)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "toggle_journee", "employee", strconv.FormatInt(id, 10), "open", open)
	writeJSON(w, http.StatusOK, map[string]bool{"is_open": open})
}

// ListMenus handles GET /api/v1/menus.
func (h *workspaceHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	p, ok := page(w, r)
	if !ok {
		return
	}
	list, err := c.Work.Menus(r.Context(), p)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	if list == nil {
		list = []backend.Menu{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"menus": list})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseUpload parses a multipart body and returns the optional "image" part.
func parseUpload(w http.ResponseWriter, r *http.Request) (*backend.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}
	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readImage(file, hdr)
}

func readImage(file multipart.File, hdr *multipart.FileHeader) (*backend.Image, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return backend.NewImage(hdr.Filename, data)
}

func uploadFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, backend.ErrNotImage) {
		writeError(w, http.StatusUnsupportedMediaType, "invalid_image", "the image must be a picture file")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse upload")
}

// formFloat parses a price field; unparsable input reads as 0 and is
// rejected by validation.
func formFloat(r *http.Request, key string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue(key)), 64)
	return f
}

// formValue returns a pointer to the field when the form carries it.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

// CreateMenu handles POST /api/v1/menus as JSON or multipart with an
// optional "image" file.
func (h *workspaceHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.MenuForm
	var img *backend.Image
	if isMultipart(r) {
		var err error
		if img, err = parseUpload(w, r); err != nil {
			uploadFailed(w, err)
			return
		}
		form = validate.MenuForm{
			Name:        r.FormValue("nom"),
			Price:       formFloat(r, "prix"),
			Category:    r.FormValue("categorie"),
			Description: r.FormValue("description"),
		}
	} else if !decode(w, r, &form) {
		return
	}

	m, err := c.Work.CreateMenu(r.Context(), form, img)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "create", "menu", strconv.FormatInt(m.ID, 10), "categorie", m.Categorie)
	writeJSON(w, http.StatusCreated, m)
}

// CreatePack handles POST /api/v1/menus/packs.
func (h *workspaceHandler) CreatePack(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.PackForm
	var img *backend.Image
	if isMultipart(r) {
		var err error
		if img, err = parseUpload(w, r); err != nil {
			uploadFailed(w, err)
			return
		}
		form = validate.PackForm{
			Name:        r.FormValue("nom"),
			Price:       formFloat(r, "prix"),
			Description: r.FormValue("description"),
		}
		for _, s := range r.MultipartForm.Value["menus"] {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "menus must be menu ids")
				return
			}
			form.MenuIDs = append(form.MenuIDs, id)
		}
	} else if !decode(w, r, &form) {
		return
	}

	m, err := c.Work.CreatePack(r.Context(), form, img)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "create", "pack", strconv.FormatInt(m.ID, 10), "menus", len(form.MenuIDs))
	writeJSON(w, http.StatusCreated, m)
}

// PackDetails handles GET /api/v1/menus/packs/{id}.
func (h *workspaceHandler) PackDetails(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := c.Work.PackDetails(r.Context(), id)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMenu handles PUT /api/v1/menus/{id}. A multipart body may replace
// the image.
func (h *workspaceHandler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in workspace.MenuUpdate
	if isMultipart(r) {
		img, err := parseUpload(w, r)
		if err != nil {
			uploadFailed(w, err)
			return
		}
		in = workspace.MenuUpdate{
			Name:        formValue(r, "nom"),
			Category:    formValue(r, "categorie"),
			Description: formValue(r, "description"),
			Image:       img,
		}
		if s := formValue(r, "prix"); s != nil {
			p := formFloat(r, "prix")
			in.Price = &p
		}
	} else if !decode(w, r, &in) {
		return
	}

	m, err := c.Work.UpdateMenu(r.Context(), id, in)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "update", "menu", strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusOK, m)
}

// DeleteMenu handles DELETE /api/v1/menus/{id}.
func (h *workspaceHandler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.Work.DeleteMenu(r.Context(), id); err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "delete", "menu", strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

// ActivateMenu handles POST /api/v1/menus/{id}/activate.
func (h *workspaceHandler) ActivateMenu(w http.ResponseWriter, r *http.Request) {
	h.setMenuActive(w, r, true)
}

// DeactivateMenu handles POST /api/v1/menus/{id}/deactivate.
func (h *workspaceHandler) DeactivateMenu(w http.ResponseWriter, r *http.Request) {
	h.setMenuActive(w, r, false)
}

func (h *workspaceHandler) setMenuActive(w http.ResponseWriter, r *http.Request, active bool) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.Work.SetMenuActive(r.Context(), id, active); err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "set_active", "menu", strconv.FormatInt(id, 10), "active", active)
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// ListTables handles GET /api/v1/tables.
func (h *workspaceHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	p, ok := page(w, r)
	if !ok {
		return
	}
	t, err := c.Work.Tables(r.Context(), p)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTable handles POST /api/v1/tables.
func (h *workspaceHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	var form validate.TableForm
	if !decode(w, r, &form) {
		return
	}
	t, err := c.Work.CreateTable(r.Context(), form)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "create", "table", strconv.FormatInt(t.ID, 10))
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTable handles PUT /api/v1/tables/{id}.
func (h *workspaceHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in backend.UpdateTableRequest
	if !decode(w, r, &in) {
		return
	}
	t, err := c.Work.UpdateTable(r.Context(), id, in)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "update", "table", strconv.FormatInt(id, 10))
	writeJSON(w, http.StatusOK, t)
}

// DeleteTable handles DELETE /api/v1/tables/{id}.
func (h *workspaceHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.Work.DeleteTable(r.Context(), id); err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "delete", "table", strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTables handles POST /api/v1/tables/toggle.
func (h *workspaceHandler) ToggleTables(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	t, err := c.Work.ToggleTables(r.Context())
	if err != nil {
		h.fail(w, c, err)
		return
	}
	auditLog(r, "toggle", "tables", "all", "active", t.Active)
	writeJSON(w, http.StatusOK, t)
}

// Stats handles GET /api/v1/stats?from=&to=&server_id=&payment=.
func (h *workspaceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	c := ConsoleFromContext(r.Context())
	q := r.URL.Query()

	p, err := workspace.ParsePeriod(q.Get("from"), q.Get("to"), h.now())
	if err != nil {
		h.fail(w, c, err)
		return
	}
	f := workspace.Filter{PaymentMethod: q.Get("payment")}
	switch f.PaymentMethod {
	case "", workspace.PaymentAll, workspace.PaymentMomo, workspace.PaymentEspeces:
	default:
		writeError(w, http.StatusBadRequest, "invalid_payment", "payment must be all, momo or especes")
		return
	}
	if s := q.Get("server_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_server", "server_id must be an integer")
			return
		}
		f.ServerID = id
	}

	report, err := c.Work.Stats(r.Context(), p, f)
	if err != nil {
		h.fail(w, c, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
