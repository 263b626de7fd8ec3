package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestResourceFromRecord(t *testing.T) {
	t.Run("heterogeneous values", func(t *testing.T) {
		r, err := ResourceFromRecord(map[string]any{
			"service_name": "  Livelihood Support  ",
			"category":     "benefit",
			"cost":         float64(0),
			"target_users": []any{"households", "seniors", nil},
			"eligibility":  map[string]any{"income": "low", "age": float64(65)},
			"location":     "Nanyo City",
			"keywords":     []any{"household finances", " ", float64(2025)},
			"contact_info": map[string]any{"phone": "0238-40-0000", "url": "https://example.org"},
			"contact_url":  "https://override.example.org",
		})
		if err != nil {
			t.Fatalf("ResourceFromRecord() error = %v", err)
		}

		if r.ServiceName != "Livelihood Support" {
			t.Errorf("ServiceName = %q", r.ServiceName)
		}
		if r.Cost != "0" {
			t.Errorf("Cost = %q, want \"0\"", r.Cost)
		}
		if r.TargetUsers != "households, seniors" {
			t.Errorf("TargetUsers = %q", r.TargetUsers)
		}
		if r.Eligibility != "age: 65; income: low" {
			t.Errorf("Eligibility = %q", r.Eligibility)
		}
		if !reflect.DeepEqual(r.Keywords, []string{"household finances", "2025"}) {
			t.Errorf("Keywords = %v", r.Keywords)
		}
		if r.Contact.Phone != "0238-40-0000" || r.Contact.URL != "https://override.example.org" {
			t.Errorf("Contact = %+v", r.Contact)
		}
		if r.Id != IDFromServiceName("livelihood support") {
			t.Errorf("Id should be derived from the service name")
		}
	})

	t.Run("keyword string with japanese separators", func(t *testing.T) {
		r, err := ResourceFromRecord(map[string]any{
			"service_name": "生活支援",
			"keywords":     "家計、自立,生活",
		})
		if err != nil {
			t.Fatalf("ResourceFromRecord() error = %v", err)
		}
		if !reflect.DeepEqual(r.Keywords, []string{"家計", "自立", "生活"}) {
			t.Errorf("Keywords = %v", r.Keywords)
		}
	})

	t.Run("string contact", func(t *testing.T) {
		r, err := ResourceFromRecord(map[string]any{"service_name": "x", "contact": "help@example.org"})
		if err != nil {
			t.Fatalf("ResourceFromRecord() error = %v", err)
		}
		if r.Contact.Email != "help@example.org" {
			t.Errorf("Contact = %+v", r.Contact)
		}
	})

	t.Run("missing service name", func(t *testing.T) {
		_, err := ResourceFromRecord(map[string]any{"description": "orphan"})
		if !errors.Is(err, ErrEmptyServiceName) {
			t.Errorf("ResourceFromRecord() error = %v, want ErrEmptyServiceName", err)
		}
	})

	t.Run("nil record", func(t *testing.T) {
		_, err := ResourceFromRecord(nil)
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("ResourceFromRecord() error = %v, want ErrInvalidRecord", err)
		}
	})
}
