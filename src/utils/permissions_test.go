package utils

import (
	"dms/src/models"
	"dms/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func staffUser(perms ...types.Permission) *models.User {
	return &models.User{
		Role:        types.ROLE_STAFF,
		Branch:      "all",
		Permissions: types.Permissions(perms),
	}
}

func TestResolveVisibility(t *testing.T) {
	t.Run("privileged roles are unrestricted", func(t *testing.T) {
		for _, role := range []types.Role{types.ROLE_ADMIN, types.ROLE_OWNER, types.ROLE_DEALER} {
			v := ResolveVisibility(&models.User{Role: role})
			assert.True(t, v.Unrestricted)
		}
	})

	t.Run("all_access is unrestricted regardless of role", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_ALL_ACCESS))
		assert.True(t, v.Unrestricted)
	})

	t.Run("no stage permissions sees nothing", func(t *testing.T) {
		v := ResolveVisibility(staffUser())
		assert.False(t, v.Unrestricted)
		assert.Empty(t, v.Statuses)
	})

	t.Run("passing clerk sees undone passing work only", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_PASSING_DETAILS))
		assert.ElementsMatch(t, []types.TicketStatus{
			types.TICKET_SOLD_NOT_DELIVERED,
			types.TICKET_DELIVERED_WITHOUT_NUMBER,
		}, v.Statuses)
		assert.Equal(t, []NullConstraint{{Field: "passing_date", MustBeNull: true}}, v.NullFields)
	})

	t.Run("registration clerk requires passing already done", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_REGISTRATION_DETAILS))
		assert.Contains(t, v.NullFields, NullConstraint{Field: "registration_date", MustBeNull: true})
		assert.Contains(t, v.NullFields, NullConstraint{Field: "passing_date", MustBeNull: false})
	})

	t.Run("sale letter visibility rides on the sent flag", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_ISSUE_SALE_LETTER))
		assert.Equal(t, []types.TicketStatus{types.TICKET_ALLOCATED}, v.Statuses)
		assert.Equal(t, []FlagConstraint{{Field: "sent_for_issue_sale_letter", Value: true}}, v.Flags)
	})

	t.Run("overlapping stage grants deduplicate statuses", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_UPLOAD_STOCK, types.PERM_ALLOCATION_DETAILS))
		assert.Equal(t, []types.TicketStatus{types.TICKET_OPEN}, v.Statuses)
	})
}

func TestContradictoryConstraints(t *testing.T) {
	t.Run("passing plus registration contradicts on passing_date", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_PASSING_DETAILS, types.PERM_REGISTRATION_DETAILS))
		field, bad := ContradictoryConstraints(v)
		assert.True(t, bad)
		assert.Equal(t, "passing_date", field)
	})

	t.Run("single stage grant is consistent", func(t *testing.T) {
		v := ResolveVisibility(staffUser(types.PERM_PASSING_DETAILS))
		_, bad := ContradictoryConstraints(v)
		assert.False(t, bad)
	})
}

func TestBuildTicketFilter(t *testing.T) {
	t.Run("contradictory grants are an error not an empty list", func(t *testing.T) {
		_, err := BuildTicketFilter(staffUser(types.PERM_PASSING_DETAILS, types.PERM_REGISTRATION_DETAILS))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("consistent grants build a scope", func(t *testing.T) {
		scope, err := BuildTicketFilter(staffUser(types.PERM_DELIVERY_REPORT))
		assert.Nil(t, err)
		assert.NotNil(t, scope)
	})
}

func TestAllowedTransitions(t *testing.T) {
	t.Run("privileged gets every stage", func(t *testing.T) {
		perms := AllowedTransitions(&models.User{Role: types.ROLE_ADMIN})
		assert.Len(t, perms, len(stagePermissions))
	})

	t.Run("staff gets only held grants", func(t *testing.T) {
		perms := AllowedTransitions(staffUser(types.PERM_DELIVERY_REPORT))
		assert.Equal(t, []types.Permission{types.PERM_DELIVERY_REPORT}, perms)
	})

	t.Run("no grants means no transitions", func(t *testing.T) {
		assert.Empty(t, AllowedTransitions(staffUser()))
	})
}
