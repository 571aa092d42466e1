package auth

import (
	"testing"

	"orgmarket_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func member(org string, flags models.JobTitleFlags) *Membership {
	return &Membership{
		EmployeeID:     "emp-1",
		OrganizationID: org,
		Status:         models.EmployeeStatusAuthorized,
		Active:         true,
		Flags:          flags,
	}
}

func TestEvaluate_OwnerAlwaysAllowed(t *testing.T) {
	d := Evaluate(Subject{ProfileID: "p1"}, ActionDeleteOrder, Target{OwnerID: "p1"})
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonOwner, d.Reason)
}

func TestEvaluate_NoMembership(t *testing.T) {
	d := Evaluate(Subject{ProfileID: "p1"}, ActionUpdateOrder, Target{OwnerID: "p2", OrganizationID: "o1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoMembership, d.Reason)

	pending := member("o1", models.AllFlags())
	pending.Status = models.EmployeeStatusPendingInvite
	d = Evaluate(Subject{ProfileID: "p1", Membership: pending}, ActionUpdateOrder, Target{OrganizationID: "o1"})
	assert.Equal(t, ReasonNoMembership, d.Reason)

	inactive := member("o1", models.AllFlags())
	inactive.Active = false
	d = Evaluate(Subject{ProfileID: "p1", Membership: inactive}, ActionUpdateOrder, Target{OrganizationID: "o1"})
	assert.Equal(t, ReasonNoMembership, d.Reason)
}

func TestEvaluate_OrganizationMismatch(t *testing.T) {
	s := Subject{ProfileID: "p1", Membership: member("o1", models.AllFlags())}

	d := Evaluate(s, ActionUpdateOrder, Target{OrganizationID: "o2"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonOrgMismatch, d.Reason)

	d = Evaluate(s, ActionUpdateOrder, Target{})
	assert.Equal(t, ReasonOrgMismatch, d.Reason)
}

func TestEvaluate_FlagTable(t *testing.T) {
	for action, flag := range Permissions {
		granted := models.JobTitleFlags{}
		s := Subject{ProfileID: "p1", Membership: member("o1", granted)}

		d := Evaluate(s, action, Target{OrganizationID: "o1"})
		assert.False(t, d.Allowed, "действие %s без флага %s должно быть запрещено", action, flag)
		assert.Equal(t, ReasonMissingFlag, d.Reason)

		s.Membership.Flags = flagsWith(flag)
		d = Evaluate(s, action, Target{OrganizationID: "o1"})
		assert.True(t, d.Allowed, "действие %s с флагом %s должно быть разрешено", action, flag)
	}
}

func TestEvaluate_MembershipOnlyAndUnknown(t *testing.T) {
	s := Subject{ProfileID: "p1", Membership: member("o1", models.JobTitleFlags{})}

	assert.True(t, HasPermission(s, ActionManageWorkers, Target{OrganizationID: "o1"}))

	d := Evaluate(s, ActionManageOrg, Target{OwnerID: "p2", OrganizationID: "o1"})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnknownAction, d.Reason)
}

func flagsWith(flag models.JobFlag) models.JobTitleFlags {
	var f models.JobTitleFlags
	switch flag {
	case models.FlagCreateJobTitle:
		f.CreateJobTitle = true
	case models.FlagRemoveJobTitle:
		f.RemoveJobTitle = true
	case models.FlagUpdateAccess:
		f.UpdateAccess = true
	case models.FlagAddEmployee:
		f.AddEmployee = true
	case models.FlagRemoveEmployee:
		f.RemoveEmployee = true
	case models.FlagChangeEmployeeJob:
		f.ChangeEmployeeJob = true
	case models.FlagEmployeeDetailAccess:
		f.EmployeeDetailAccess = true
	case models.FlagCreateVacancy:
		f.CreateVacancy = true
	case models.FlagUpdateOrder:
		f.UpdateOrder = true
	case models.FlagDeleteOrder:
		f.DeleteOrder = true
	}
	return f
}
