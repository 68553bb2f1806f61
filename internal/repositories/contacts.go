package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
)

const contactColumns = `id, first_name, last_name, email, phone, company, status, created_at, updated_at`

var contactSorts = map[models.SortField]string{
	models.SortCreatedAt: "created_at",
	models.SortUpdatedAt: "updated_at",
	models.SortName:      "LOWER(last_name || ' ' || first_name)",
}

// ContactRepository persists [models.Contact] rows.
//
// Deleting a contact cascades to its tasks through the tasks.contact_id foreign key.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new ContactRepository with the given database connection
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create validates c, assigns its id and timestamps, and inserts it.
func (r *ContactRepository) Create(c *models.Contact) error {
	if c.Status == "" {
		c.Status = models.ContactLead
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "contacts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	c.ID = shared.GenerateID()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `
		INSERT INTO contacts (id, sequence, first_name, last_name, email, phone, company, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, c.ID, sequence, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// Get retrieves a contact by ID
func (r *ContactRepository) Get(id string) (models.Contact, error) {
	row := r.db.QueryRow("SELECT "+contactColumns+" FROM contacts WHERE id = ?", id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, fmt.Errorf("%w: %s", shared.ErrContactNotFound, id)
	}
	return c, err
}

// Update writes the editable fields of c and refreshes its updated_at.
func (r *ContactRepository) Update(c *models.Contact) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone = ?, company = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Status, now, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if err := requireRow(result, shared.ErrContactNotFound, c.ID); err != nil {
		return err
	}

	stored, err := r.Get(c.ID)
	if err != nil {
		return err
	}
	*c = stored
	return nil
}

// Delete removes a contact and, through the foreign key, its tasks.
func (r *ContactRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return requireRow(result, shared.ErrContactNotFound, id)
}

// List returns one page of contacts and the total matching row count.
func (r *ContactRepository) List(opts ListOptions) ([]models.Contact, int, error) {
	opts = opts.Normalize()
	f := r.filter(opts)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM contacts"+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := "SELECT " + contactColumns + " FROM contacts" + f.where() +
		orderBy(contactSorts, "created_at", opts, "sequence") + " LIMIT ? OFFSET ?"

	rows, err := r.db.Query(query, append(f.args, opts.Limit, opts.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, total, nil
}

// Counts returns per-status totals of contacts matching the text query, ignoring any status filter.
func (r *ContactRepository) Counts(query string) (map[string]int, error) {
	return countByStatus(r.db, "contacts", r.filter(ListOptions{Query: query}))
}

func (r *ContactRepository) filter(opts ListOptions) filter {
	var f filter
	if opts.Status != "" {
		f.add("status = ?", opts.Status)
	}
	f.search(opts.Query, "first_name", "last_name", "first_name || ' ' || last_name", "email", "company", "phone")
	return f
}

func scanContact(s scanner) (models.Contact, error) {
	var c models.Contact
	err := s.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("failed to scan contact: %w", err)
	}
	return c, nil
}

// requireRow turns a zero-row result into a wrapped notFound error.
func requireRow(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
