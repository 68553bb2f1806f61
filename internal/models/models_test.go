package models

import (
	"errors"
	"testing"
	"time"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name              string
		total, page, size int
		wantPages         int
	}{
		{name: "Exact Multiple", total: 30, page: 1, size: 10, wantPages: 3},
		{name: "Partial Last Page", total: 21, page: 3, size: 10, wantPages: 3},
		{name: "Empty", total: 0, page: 1, size: 10, wantPages: 0},
		{name: "Zero Size", total: 4, page: 1, size: 0, wantPages: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.size)
			if p.PageCount != tt.wantPages {
				t.Errorf("expected %d pages, got %d", tt.wantPages, p.PageCount)
			}
			if p.CurrentPage != tt.page {
				t.Errorf("expected page %d, got %d", tt.page, p.CurrentPage)
			}
		})
	}
}

func TestSortParsing(t *testing.T) {
	t.Run("Fields", func(t *testing.T) {
		for _, s := range []string{"createdAt", "updatedAt", "dueDate", "name"} {
			if _, err := ParseSortField(s); err != nil {
				t.Errorf("expected %q to parse, got %v", s, err)
			}
		}
		if _, err := ParseSortField("priority"); err == nil {
			t.Error("expected error for unknown field")
		}
	})

	t.Run("Orders", func(t *testing.T) {
		if o, err := ParseSortOrder("DESC"); err != nil || o != Desc {
			t.Errorf("expected desc, got %q (%v)", o, err)
		}
		if _, err := ParseSortOrder("sideways"); err == nil {
			t.Error("expected error for unknown order")
		}
		if Asc.Flip() != Desc || Desc.Flip() != Asc {
			t.Error("expected Flip to swap orders")
		}
	})
}

func TestContact(t *testing.T) {
	c := Contact{
		ID: "c1", FirstName: "John", LastName: "Doe", Email: "john@acme.io",
		Company: "Acme", Status: ContactLead,
	}

	t.Run("Record", func(t *testing.T) {
		if c.Label() != "John Doe" {
			t.Errorf("expected label 'John Doe', got %q", c.Label())
		}
		if c.Group() != "Acme" {
			t.Errorf("expected group Acme, got %q", c.Group())
		}

		updated := c.WithState(ContactCustomer)
		if updated.State() != ContactCustomer {
			t.Errorf("expected CUSTOMER, got %s", updated.State())
		}
		if c.Status != ContactLead {
			t.Error("expected WithState to leave the original untouched")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := c.Validate(); err != nil {
			t.Fatalf("expected valid contact, got %v", err)
		}

		bad := c
		bad.Status = "FRIEND"
		if err := bad.Validate(); err == nil {
			t.Error("expected error for unknown status")
		}

		bad = c
		bad.Email = "nope"
		err := bad.Validate()
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != "email" {
			t.Errorf("expected email field error, got %v", err)
		}
	})
}

func TestTask(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(500 * time.Millisecond)

	a := Task{ID: "t1", Title: "Call", DueDate: early, Contact: &TaskContact{FirstName: "Ann", LastName: "Lee", Company: "Initech"}}
	b := Task{ID: "t2", Title: "Email", DueDate: late}

	t.Run("Sort Values Compare Chronologically", func(t *testing.T) {
		if !(a.SortValue(SortDueDate) < b.SortValue(SortDueDate)) {
			t.Errorf("expected %q < %q", a.SortValue(SortDueDate), b.SortValue(SortDueDate))
		}
	})

	t.Run("Contact Fields", func(t *testing.T) {
		if a.ContactName() != "Ann Lee" {
			t.Errorf("expected 'Ann Lee', got %q", a.ContactName())
		}
		if a.Group() != "Initech" {
			t.Errorf("expected Initech, got %q", a.Group())
		}
		if b.Group() != "" {
			t.Errorf("expected empty group without contact, got %q", b.Group())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := Task{Title: "Call", Description: "Follow up", Status: TaskPending, DueDate: early, ContactID: "c1"}
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected valid task, got %v", err)
		}

		missing := valid
		missing.Description = "  "
		err := missing.Validate()
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != "description" {
			t.Errorf("expected description field error, got %v", err)
		}
	})
}
