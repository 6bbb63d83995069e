package utils

import (
	"dms/src/models"
	"dms/src/types"
	"fmt"

	"gorm.io/gorm"
)

// permissionStatuses maps each stage permission to the ticket statuses its
// holder works on. The tables are package data so the policy can be audited
// and tested without touching query execution.
var permissionStatuses = map[types.Permission][]types.TicketStatus{
	types.PERM_UPLOAD_STOCK:         {types.TICKET_OPEN},
	types.PERM_ALLOCATION_DETAILS:   {types.TICKET_OPEN},
	types.PERM_ISSUE_SALE_LETTER:    {types.TICKET_ALLOCATED},
	types.PERM_PASSING_DETAILS:      {types.TICKET_SOLD_NOT_DELIVERED, types.TICKET_DELIVERED_WITHOUT_NUMBER},
	types.PERM_REGISTRATION_DETAILS: {types.TICKET_SOLD_NOT_DELIVERED, types.TICKET_DELIVERED_WITHOUT_NUMBER},
	types.PERM_DELIVERY_REPORT:      {types.TICKET_SOLD_NOT_DELIVERED},
}

// permissionNullFields: holders see only tickets that have not yet progressed
// past their stage, expressed as "this column is still null".
var permissionNullFields = map[types.Permission]string{
	types.PERM_PASSING_DETAILS:      "passing_date",
	types.PERM_REGISTRATION_DETAILS: "registration_date",
	types.PERM_DELIVERY_REPORT:      "gate_pass_serial_number",
}

// stagePermissions fixes the evaluation order so derived filters are
// deterministic regardless of map iteration.
var stagePermissions = []types.Permission{
	types.PERM_UPLOAD_STOCK,
	types.PERM_ALLOCATION_DETAILS,
	types.PERM_ISSUE_SALE_LETTER,
	types.PERM_PASSING_DETAILS,
	types.PERM_REGISTRATION_DETAILS,
	types.PERM_DELIVERY_REPORT,
}

// NullConstraint requires a column to be null (MustBeNull) or non-null.
type NullConstraint struct {
	Field      string
	MustBeNull bool
}

// FlagConstraint requires a boolean column to hold a value.
type FlagConstraint struct {
	Field string
	Value bool
}

// Visibility is the derived read scope for one user. With Unrestricted set
// the remaining fields are empty and only the branch constraint applies.
type Visibility struct {
	Unrestricted bool
	Statuses     []types.TicketStatus
	NullFields   []NullConstraint
	Flags        []FlagConstraint
}

// ResolveVisibility derives which tickets a user may see from role and
// permission set. Pure function of its input. A non-privileged user with no
// stage permissions gets an empty status set and sees nothing.
func ResolveVisibility(user *models.User) Visibility {
	if user.Role.Privileged() || user.Permissions.Has(types.PERM_ALL_ACCESS) {
		return Visibility{Unrestricted: true}
	}

	var v Visibility
	seenStatus := make(map[types.TicketStatus]bool)
	seenNull := make(map[string]bool)

	for _, perm := range stagePermissions {
		if !user.Permissions.Has(perm) {
			continue
		}
		for _, s := range permissionStatuses[perm] {
			if !seenStatus[s] {
				seenStatus[s] = true
				v.Statuses = append(v.Statuses, s)
			}
		}
		if field, ok := permissionNullFields[perm]; ok && !seenNull[field] {
			seenNull[field] = true
			v.NullFields = append(v.NullFields, NullConstraint{Field: field, MustBeNull: true})
		}
	}
	// Registration work starts only after passing is done: the passing date
	// must already be set from this viewer's perspective.
	if user.Permissions.Has(types.PERM_REGISTRATION_DETAILS) {
		v.NullFields = append(v.NullFields, NullConstraint{Field: "passing_date", MustBeNull: false})
	}
	if user.Permissions.Has(types.PERM_ISSUE_SALE_LETTER) {
		v.Flags = append(v.Flags, FlagConstraint{Field: "sent_for_issue_sale_letter", Value: true})
	}
	return v
}

// ContradictoryConstraints reports the first column a visibility set requires
// to be both null and non-null, if any. A permission combination producing
// one can never match a ticket and is a configuration error, not an empty
// result.
func ContradictoryConstraints(v Visibility) (string, bool) {
	wantNull := make(map[string]bool)
	for _, c := range v.NullFields {
		if prev, seen := wantNull[c.Field]; seen && prev != c.MustBeNull {
			return c.Field, true
		}
		wantNull[c.Field] = c.MustBeNull
	}
	return "", false
}

// BuildTicketFilter composes the branch, status, null-field and flag
// constraints for a user into a gorm scope for ticket listing. Fails closed:
// zero grants yield a scope that matches nothing.
func BuildTicketFilter(user *models.User) (func(*gorm.DB) *gorm.DB, error) {
	v := ResolveVisibility(user)
	if field, bad := ContradictoryConstraints(v); bad {
		return nil, fmt.Errorf("%w: permission set requires %s to be both null and non-null", ErrForbidden, field)
	}

	branch := user.Branch
	return func(tx *gorm.DB) *gorm.DB {
		if branch != "" && branch != "all" {
			tx = tx.Where("location ILIKE ?", "%"+branch+"%")
		}
		if v.Unrestricted {
			return tx
		}
		if len(v.Statuses) == 0 {
			// No stage permission at all: match nothing rather than leak.
			return tx.Where("1 = 0")
		}
		tx = tx.Where("status IN ?", v.Statuses)
		for _, c := range v.NullFields {
			if c.MustBeNull {
				tx = tx.Where(c.Field + " IS NULL")
			} else {
				tx = tx.Where(c.Field + " IS NOT NULL")
			}
		}
		for _, f := range v.Flags {
			tx = tx.Where(f.Field+" = ?", f.Value)
		}
		return tx
	}, nil
}

// AllowedTransitions lists the update operations the user may invoke,
// keyed by permission. Used to gate the stage endpoints.
func AllowedTransitions(user *models.User) []types.Permission {
	if user.Role.Privileged() || user.Permissions.Has(types.PERM_ALL_ACCESS) {
		return stagePermissions
	}
	var out []types.Permission
	for _, perm := range stagePermissions {
		if user.Permissions.Has(perm) {
			out = append(out, perm)
		}
	}
	return out
}
