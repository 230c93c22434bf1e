package transport

import (
	"strings"
	"testing"

	"github.com/realnickp/BackyardBobbys-sub000/platform/validator"
)

func validRequest() PublicLeadRequest {
	return PublicLeadRequest{
		Name:    "Dana Brooks",
		Phone:   "555-867-5309",
		Service: "deck",
	}
}

func TestPublicLeadRequestValidation(t *testing.T) {
	val := validator.New()

	tests := []struct {
		name    string
		mutate  func(*PublicLeadRequest)
		wantErr bool
	}{
		{name: "minimal valid request", mutate: func(r *PublicLeadRequest) {}},
		{name: "two character name passes", mutate: func(r *PublicLeadRequest) { r.Name = "Jo" }},
		{name: "single character name fails", mutate: func(r *PublicLeadRequest) { r.Name = "J" }, wantErr: true},
		{name: "missing name fails", mutate: func(r *PublicLeadRequest) { r.Name = "" }, wantErr: true},
		{name: "missing phone fails", mutate: func(r *PublicLeadRequest) { r.Phone = "" }, wantErr: true},
		{name: "missing service fails", mutate: func(r *PublicLeadRequest) { r.Service = "" }, wantErr: true},
		{name: "malformed email fails", mutate: func(r *PublicLeadRequest) {
			email := "not-an-email"
			r.Email = &email
		}, wantErr: true},
		{name: "valid email passes", mutate: func(r *PublicLeadRequest) {
			email := "dana@example.com"
			r.Email = &email
		}},
		{name: "nil email passes", mutate: func(r *PublicLeadRequest) { r.Email = nil }},
		{name: "oversized description fails", mutate: func(r *PublicLeadRequest) {
			r.Description = strings.Repeat("x", 2001)
		}, wantErr: true},
		{name: "name over limit fails", mutate: func(r *PublicLeadRequest) {
			r.Name = strings.Repeat("a", 101)
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := val.Struct(req)
			if tt.wantErr && err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}
