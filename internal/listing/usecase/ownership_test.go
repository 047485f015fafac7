package usecase

import (
	"testing"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	listing := &domain.Listing{ID: "l1", OwnerID: "owner"}
	roles := []domain.Role{domain.RoleLister, domain.RoleBrowser, domain.Role(""), domain.Role("admin")}
	ids := []string{"owner", "someone-else", ""}

	for _, role := range roles {
		for _, id := range ids {
			caller := domain.Caller{ID: id, Role: role}
			want := Denied
			if role == domain.RoleLister && id == "owner" {
				want = Allowed
			}
			assert.Equal(t, want, Authorize(caller, listing), "role=%q id=%q", role, id)
		}
	}
}

func TestAuthorizeNilListing(t *testing.T) {
	assert.Equal(t, Denied, Authorize(domain.Caller{ID: "owner", Role: domain.RoleLister}, nil))
}

func TestAuthorizeCreate(t *testing.T) {
	assert.Equal(t, Allowed, AuthorizeCreate(domain.Caller{ID: "u1", Role: domain.RoleLister}))
	assert.Equal(t, Denied, AuthorizeCreate(domain.Caller{ID: "u1", Role: domain.RoleBrowser}))
	assert.Equal(t, Denied, AuthorizeCreate(domain.Caller{Role: domain.RoleLister}))
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "denied", Denied.String())
}
