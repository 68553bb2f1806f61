package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

const contactsPath = "/api/protected/contacts"

var _ Source = (*ContactService)(nil)

// contactInput is the request body of contact create and update.
type contactInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Status    string `json:"status"`
}

func newContactInput(c models.Contact) contactInput {
	return contactInput{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Status:    c.Status,
	}
}

// ContactService implements [Source] for the protected contacts API.
//
// Single contacts are addressed with an id query parameter, and updates are POSTed.
type ContactService struct {
	c collection[models.Contact]
}

// NewContactService creates a contacts client on top of client.
func NewContactService(client Doer) *ContactService {
	return &ContactService{c: collection[models.Contact]{
		client:     client,
		listPath:   contactsPath,
		searchPath: contactsPath + "/search",
	}}
}

func (s *ContactService) Name() string       { return "contacts" }
func (s *ContactService) Statuses() []string { return models.ContactStatuses }

func (s *ContactService) List(ctx context.Context, p ListParams) (*models.Page, error) {
	return s.c.list(ctx, p)
}

func (s *ContactService) Search(ctx context.Context, p SearchParams) (*models.Page, error) {
	return s.c.search(ctx, p)
}

// Get fetches one contact by id.
func (s *ContactService) Get(ctx context.Context, id string, bypass bool) (models.Record, error) {
	rec, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodGet, Path: contactsPath, Query: idQuery(id), BypassCache: bypass})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrContactNotFound, id)
	}
	return rec, nil
}

// Create validates and submits a new contact.
func (s *ContactService) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	contact, err := asContact(rec)
	if err != nil {
		return nil, err
	}
	if err := contact.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	created, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodPost, Path: contactsPath, Body: newContactInput(contact), BypassCache: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return contact, nil
	}
	return created, nil
}

// Update replaces the editable fields of an existing contact.
func (s *ContactService) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	contact, err := asContact(rec)
	if err != nil {
		return nil, err
	}
	if contact.ID == "" {
		return nil, fmt.Errorf("%w: contact id", shared.ErrMissingArgument)
	}
	if err := contact.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	updated, ok, err := s.c.one(ctx, transport.Request{
		Method:      http.MethodPost,
		Path:        contactsPath,
		Query:       idQuery(contact.ID),
		Body:        newContactInput(contact),
		BypassCache: true,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return contact, nil
	}
	return updated, nil
}

// Delete removes a contact; the server cascades to its tasks.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	_, _, err := s.c.one(ctx, transport.Request{Method: http.MethodDelete, Path: contactsPath, Query: idQuery(id), BypassCache: true})
	return err
}

// SetStatus has no dedicated endpoint for contacts and is sent as a full update.
func (s *ContactService) SetStatus(ctx context.Context, rec models.Record, status string) (models.Record, error) {
	if !models.ValidStatus(models.ContactStatuses, status) {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, status)
	}
	return s.Update(ctx, rec.WithState(status))
}

func asContact(rec models.Record) (models.Contact, error) {
	switch c := rec.(type) {
	case models.Contact:
		return c, nil
	case *models.Contact:
		return *c, nil
	default:
		return models.Contact{}, fmt.Errorf("%w: expected contact, got %T", shared.ErrInvalidInput, rec)
	}
}

func idQuery(id string) url.Values {
	return url.Values{"id": {id}}
}
