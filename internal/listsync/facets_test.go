package listsync

import (
	"testing"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/google/go-cmp/cmp"
)

func contact(id, first, last, company, status string) models.Contact {
	return models.Contact{
		ID: id, FirstName: first, LastName: last, Company: company, Status: status,
		Email: first + "@" + company + ".test",
	}
}

func keys(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Key()
	}
	return out
}

func TestFacets(t *testing.T) {
	records := []models.Record{
		contact("1", "John", "Doe", "Acme", models.ContactLead),
		contact("2", "Jane", "Roe", "Initech", models.ContactCustomer),
		contact("3", "Johnny", "Bravo", "Acme", models.ContactCustomer),
		contact("4", "Ann", "Lee", "", models.ContactLead),
	}

	t.Run("ComputeFacets", func(t *testing.T) {
		want := Facets{
			Statuses: []FacetCount{{Value: "CUSTOMER", Count: 2}, {Value: "LEAD", Count: 2}},
			Groups:   []FacetCount{{Value: "Acme", Count: 2}, {Value: "Initech", Count: 1}},
		}
		if diff := cmp.Diff(want, ComputeFacets(records)); diff != "" {
			t.Errorf("facets mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("CountStatuses", func(t *testing.T) {
		want := map[string]int{"TOTAL": 4, "LEAD": 2, "CUSTOMER": 2}
		if diff := cmp.Diff(want, CountStatuses(records)); diff != "" {
			t.Errorf("counts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Predicate", func(t *testing.T) {
		tests := []struct {
			name string
			p    Predicate
			want []string
		}{
			{name: "Empty Matches All", p: Predicate{}, want: []string{"1", "2", "3", "4"}},
			{name: "Search Is Case Insensitive", p: Predicate{Search: "JOHN"}, want: []string{"1", "3"}},
			{name: "Search Matches Email", p: Predicate{Search: "initech.test"}, want: []string{"2"}},
			{name: "Search And Status", p: Predicate{Search: "john", Status: models.ContactCustomer}, want: []string{"3"}},
			{name: "Group", p: Predicate{Group: "Acme"}, want: []string{"1", "3"}},
			{name: "All Criteria", p: Predicate{Search: "john", Status: models.ContactLead, Group: "Acme"}, want: []string{"1"}},
			{name: "No Match", p: Predicate{Search: "zed"}, want: []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if diff := cmp.Diff(tt.want, keys(Filter(records, tt.p))); diff != "" {
					t.Errorf("filter mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("SortRecords", func(t *testing.T) {
		asc := SortRecords(records, models.SortName, models.Asc)
		if diff := cmp.Diff([]string{"3", "1", "4", "2"}, keys(asc)); diff != "" {
			t.Errorf("asc mismatch (-want +got):\n%s", diff)
		}

		desc := SortRecords(records, models.SortName, models.Desc)
		if diff := cmp.Diff([]string{"2", "4", "1", "3"}, keys(desc)); diff != "" {
			t.Errorf("desc mismatch (-want +got):\n%s", diff)
		}

		if records[0].Key() != "1" {
			t.Error("expected input order to be preserved")
		}
	})

	t.Run("Paginate", func(t *testing.T) {
		items, meta := Paginate(records, 2, 3)
		if diff := cmp.Diff([]string{"4"}, keys(items)); diff != "" {
			t.Errorf("page mismatch (-want +got):\n%s", diff)
		}
		want := models.Pagination{Total: 4, PageCount: 2, CurrentPage: 2, PageSize: 3}
		if meta != want {
			t.Errorf("expected %+v, got %+v", want, meta)
		}

		beyond, _ := Paginate(records, 5, 3)
		if len(beyond) != 0 {
			t.Errorf("expected empty page beyond the end, got %d items", len(beyond))
		}
	})
}
