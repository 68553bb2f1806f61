package server

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/repositories"
	"github.com/desertthunder/crmx/internal/shared"
)

const contactsPath = "/api/protected/contacts"

// contactBody is the request body of contact create and update.
type contactBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Status    string `json:"status"`
}

func (b contactBody) apply(c *models.Contact) {
	c.FirstName, c.LastName, c.Email = b.FirstName, b.LastName, b.Email
	c.Phone, c.Company = b.Phone, b.Company
	if b.Status != "" {
		c.Status = b.Status
	}
}

// ContactHandler serves the protected contacts collection.
//
// Single contacts are addressed with an id query parameter on the collection path.
type ContactHandler struct {
	repo *repositories.ContactRepository
}

// NewContactHandler creates a handler over repo.
func NewContactHandler(repo *repositories.ContactRepository) *ContactHandler {
	return &ContactHandler{repo: repo}
}

func (h *ContactHandler) Routes() []string {
	return []string{
		"GET " + contactsPath,
		"POST " + contactsPath,
		"DELETE " + contactsPath,
		"GET " + contactsPath + "/search",
	}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	switch {
	case r.Pattern == "GET "+contactsPath+"/search":
		h.search(w, r)
	case r.Method == http.MethodGet && id != "":
		h.get(w, id)
	case r.Method == http.MethodGet:
		h.list(w, r)
	case r.Method == http.MethodPost && id != "":
		h.update(w, r, id)
	case r.Method == http.MethodPost:
		h.create(w, r)
	case r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	}
}

func (h *ContactHandler) list(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r, models.ContactStatuses)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Query = ""

	contacts, total, err := h.repo.List(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := h.repo.Counts("")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contacts":   contacts,
		"pagination": newPagination(total, opts),
		"counts":     counts,
	})
}

func (h *ContactHandler) search(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r, models.ContactStatuses)
	if err != nil {
		writeError(w, err)
		return
	}

	contacts, total, err := h.repo.List(opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contacts":   contacts,
		"pagination": newSearchPagination(total, opts),
	})
}

func (h *ContactHandler) get(w http.ResponseWriter, id string) {
	c, err := h.repo.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contact": c})
}

func (h *ContactHandler) create(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	var c models.Contact
	body.apply(&c)
	if err := h.repo.Create(&c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"contact": c})
}

func (h *ContactHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.repo.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var body contactBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	body.apply(&c)
	if err := h.repo.Update(&c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contact": c})
}

func (h *ContactHandler) delete(w http.ResponseWriter, id string) {
	if id == "" {
		writeError(w, fmt.Errorf("%w: id", shared.ErrMissingArgument))
		return
	}
	if err := h.repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Contact deleted"})
}
