package services

import (
	"testing"
	"time"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createOrgErr(env *testEnv, user *models.User, title string, active *bool) error {
	_, err := env.svc.OrganizationService.CreateOrganization(env.db, user.ID, &dto.CreateOrganizationRequest{Title: title, Active: active})
	return err
}

func TestSubscription_QuotaPerTier(t *testing.T) {
	env := newTestEnv(t)

	none, _ := env.user(t, "none", models.TierNone)
	assert.ErrorIs(t, createOrgErr(env, none, "A", nil), apperrors.ErrTierDenied)

	trial, _ := env.user(t, "trial", models.TierTrial)
	require.NoError(t, createOrgErr(env, trial, "Trial org", nil))
	assert.ErrorIs(t, createOrgErr(env, trial, "Second", nil), apperrors.ErrQuotaExceeded)

	basic, basicProfile := env.user(t, "basic", models.TierBasic)
	helpers.ExpireSubscription(t, env.db, basicProfile)
	assert.ErrorIs(t, createOrgErr(env, basic, "Late", nil), apperrors.ErrSubscriptionExpired)

	premium, _ := env.user(t, "premium", models.TierPremium)
	for i := 0; i < 5; i++ {
		require.NoError(t, createOrgErr(env, premium, "Premium org", nil))
	}
	assert.ErrorIs(t, createOrgErr(env, premium, "Sixth", nil), apperrors.ErrQuotaExceeded)

	sub, err := env.svc.SubscriptionService.GetSubscription(env.db, premium.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.MaxOrganizations)
	assert.EqualValues(t, 5, sub.OwnedOrganizations)
}

func TestSubscription_Subscribe(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.user(t, "sub", models.TierNone)
	svc := env.svc.SubscriptionService

	_, err := svc.Subscribe(env.db, user.ID, models.TierNone)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTier)

	trial, err := svc.Subscribe(env.db, user.ID, models.TierTrial)
	require.NoError(t, err)
	require.NotNil(t, trial.ExpiresAt)

	_, err = svc.Subscribe(env.db, user.ID, models.TierTrial)
	assert.ErrorIs(t, err, apperrors.ErrTrialAlreadyUsed)

	// продление идет от еще не истекшего срока
	basic, err := svc.Subscribe(env.db, user.ID, models.TierBasic)
	require.NoError(t, err)
	require.NotNil(t, basic.ExpiresAt)
	expected := trial.ExpiresAt.Add(models.TierBasic.Limits().Window)
	assert.WithinDuration(t, expected, *basic.ExpiresAt, time.Second)

	premium, err := svc.Subscribe(env.db, user.ID, models.TierPremium)
	require.NoError(t, err)
	assert.Nil(t, premium.ExpiresAt)
	assert.Equal(t, models.TierPremium, premium.Tier)
}

func TestOrganization_CreateSetsFounderAndActive(t *testing.T) {
	env := newTestEnv(t)
	owner, profile := env.user(t, "owner", models.TierPremium)

	first := env.createOrg(t, owner, "Ателье Бишкек")
	assert.True(t, first.Active)
	assert.True(t, first.IsMyActive)
	assert.Equal(t, profile.ID, first.FounderID)

	titles, err := env.svc.JobTitleService.ListJobTitles(env.db, owner.ID)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.True(t, titles[0].IsFounder)
	assert.Equal(t, models.AllFlags(), titles[0].JobTitleFlags)

	keep := false
	second, err := env.svc.OrganizationService.CreateOrganization(env.db, owner.ID, &dto.CreateOrganizationRequest{Title: "Второй цех", Active: &keep})
	require.NoError(t, err)
	assert.False(t, second.IsMyActive, "Premium может оставить прежнюю активную")

	third := env.createOrg(t, owner, "Третий цех")
	assert.True(t, third.IsMyActive)

	mine, err := env.svc.OrganizationService.ListMyOrganizations(env.db, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	active := 0
	for _, o := range mine {
		if o.IsMyActive {
			active++
			assert.Equal(t, third.ID, o.ID)
		}
	}
	assert.Equal(t, 1, active, "ровно одна активная организация")

	require.NoError(t, env.svc.OrganizationService.ActivateOrganization(env.db, owner.ID, first.Slug))
	got, err := env.svc.OrganizationService.GetOrganization(env.db, owner.ID, first.Slug)
	require.NoError(t, err)
	assert.True(t, got.IsMyActive)
}

func TestOrganization_DeletePromotesEarliest(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierPremium)

	first := env.createOrg(t, owner, "Первая")
	env.createOrg(t, owner, "Вторая")
	last := env.createOrg(t, owner, "Третья")

	stranger, _ := env.user(t, "stranger", models.TierPremium)
	assert.ErrorIs(t, env.svc.OrganizationService.DeleteOrganization(env.db, stranger.ID, last.Slug), errDenied)

	require.NoError(t, env.svc.OrganizationService.DeleteOrganization(env.db, owner.ID, last.Slug))

	got, err := env.svc.OrganizationService.GetOrganization(env.db, owner.ID, first.Slug)
	require.NoError(t, err)
	assert.True(t, got.IsMyActive, "активной становится самая ранняя оставшаяся")

	_, err = env.svc.OrganizationService.GetOrganization(env.db, owner.ID, last.Slug)
	assert.ErrorIs(t, err, apperrors.ErrOrganizationNotFound)
}

func TestOrganization_UpdateOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierBasic)
	org := env.createOrg(t, owner, "Старое имя")

	member, _ := env.user(t, "member", models.TierNone)
	manager := env.jobTitle(t, owner, "Менеджер", models.AllFlags())
	env.hire(t, owner, member, org.Slug, manager.Slug)

	title := "Новое имя"
	_, err := env.svc.OrganizationService.UpdateOrganization(env.db, member.ID, org.Slug, &dto.UpdateOrganizationRequest{Title: &title})
	assert.ErrorIs(t, err, errDenied, "даже со всеми флагами управляет только владелец")

	updated, err := env.svc.OrganizationService.UpdateOrganization(env.db, owner.ID, org.Slug, &dto.UpdateOrganizationRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, org.Slug, updated.Slug, "slug не меняется при переименовании")
}

func TestEmployee_InviteAcceptExit(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierBasic)
	org := env.createOrg(t, owner, "Цех")
	seamstress := env.jobTitle(t, owner, "Швея", models.JobTitleFlags{UpdateOrder: true})

	other, _ := env.user(t, "other", models.TierBasic)
	otherOrg := env.createOrg(t, other, "Соседи")
	otherTitle := env.jobTitle(t, other, "Кроит", models.JobTitleFlags{})

	worker, workerProfile := env.user(t, "worker", models.TierNone)
	invite := &dto.InviteRequest{Email: worker.Email, OrganizationSlug: org.Slug, JobTitleSlug: seamstress.Slug}

	_, err := env.svc.EmployeeService.Invite(env.db, owner.ID, invite)
	require.NoError(t, err)
	_, err = env.svc.EmployeeService.Invite(env.db, owner.ID, invite)
	assert.ErrorIs(t, err, apperrors.ErrInviteExists)

	_, err = env.svc.EmployeeService.Invite(env.db, other.ID, &dto.InviteRequest{
		Email: worker.Email, OrganizationSlug: otherOrg.Slug, JobTitleSlug: otherTitle.Slug,
	})
	require.NoError(t, err)

	invites, err := env.svc.EmployeeService.ListMyInvites(env.db, worker.ID)
	require.NoError(t, err)
	assert.Len(t, invites, 2)

	notes := env.notifications(t, workerProfile.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, "Приглашение в организацию", notes[0].Title)
	assert.Contains(t, env.signaler.groups(), NotificationsGroup(workerProfile.ID))

	require.NoError(t, env.svc.EmployeeService.AcceptInvite(env.db, worker.ID, org.Slug))
	invites, err = env.svc.EmployeeService.ListMyInvites(env.db, worker.ID)
	require.NoError(t, err)
	assert.Empty(t, invites, "остальные приглашения удаляются")

	_, err = env.svc.EmployeeService.Invite(env.db, other.ID, &dto.InviteRequest{
		Email: worker.Email, OrganizationSlug: otherOrg.Slug, JobTitleSlug: otherTitle.Slug,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)

	employees, err := env.svc.EmployeeService.ListEmployees(env.db, org.Slug)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	assert.ErrorIs(t, env.svc.OrganizationService.ExitOrganization(env.db, owner.ID, org.Slug), apperrors.ErrOwnerCannotLeave)
	require.NoError(t, env.svc.OrganizationService.ExitOrganization(env.db, worker.ID, org.Slug))
	assert.ErrorIs(t, env.svc.OrganizationService.ExitOrganization(env.db, worker.ID, org.Slug), apperrors.ErrNotAMember)
}

func TestEmployee_FlagsGateActions(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierBasic)
	org := env.createOrg(t, owner, "Цех")

	plain := env.jobTitle(t, owner, "Стажер", models.JobTitleFlags{})
	hr := env.jobTitle(t, owner, "Кадры", models.JobTitleFlags{AddEmployee: true, EmployeeDetailAccess: true})

	intern, _ := env.user(t, "intern", models.TierNone)
	env.hire(t, owner, intern, org.Slug, plain.Slug)
	recruiter, _ := env.user(t, "recruiter", models.TierNone)
	env.hire(t, owner, recruiter, org.Slug, hr.Slug)

	newbie, _ := env.user(t, "newbie", models.TierNone)
	req := &dto.InviteRequest{Email: newbie.Email, OrganizationSlug: org.Slug, JobTitleSlug: plain.Slug}

	_, err := env.svc.EmployeeService.Invite(env.db, intern.ID, req)
	assert.ErrorIs(t, err, errDenied)
	_, err = env.svc.EmployeeService.Invite(env.db, recruiter.ID, req)
	require.NoError(t, err)

	employees, err := env.svc.EmployeeService.ListEmployees(env.db, org.Slug)
	require.NoError(t, err)
	var ownerEmployeeID, internEmployeeID string
	for _, e := range employees {
		switch e.Profile.Slug {
		case owner.Profile.Slug:
			ownerEmployeeID = e.ID
		case intern.Profile.Slug:
			internEmployeeID = e.ID
		}
	}
	require.NotEmpty(t, ownerEmployeeID)
	require.NotEmpty(t, internEmployeeID)

	_, err = env.svc.EmployeeService.GetEmployeeDetail(env.db, recruiter.ID, internEmployeeID)
	require.NoError(t, err)
	_, err = env.svc.EmployeeService.GetEmployeeDetail(env.db, intern.ID, ownerEmployeeID)
	assert.ErrorIs(t, err, errDenied)
	_, err = env.svc.EmployeeService.GetEmployeeDetail(env.db, intern.ID, internEmployeeID)
	require.NoError(t, err, "свою карточку видно всегда")

	assert.ErrorIs(t, env.svc.EmployeeService.RemoveEmployee(env.db, owner.ID, ownerEmployeeID), apperrors.ErrOwnerCannotLeave)

	changed, err := env.svc.EmployeeService.ChangeEmployeeJob(env.db, owner.ID, internEmployeeID, &dto.ChangeJobRequest{JobTitleSlug: hr.Slug})
	require.NoError(t, err)
	assert.Equal(t, hr.Slug, changed.JobTitleSlug)

	require.NoError(t, env.svc.EmployeeService.RemoveEmployee(env.db, owner.ID, internEmployeeID))
	_, err = env.svc.EmployeeService.GetEmployeeDetail(env.db, owner.ID, internEmployeeID)
	assert.ErrorIs(t, err, apperrors.ErrEmployeeNotFound)
}

func TestJobTitle_Rules(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierBasic)
	org := env.createOrg(t, owner, "Цех")

	cutter := env.jobTitle(t, owner, "Закройщик", models.JobTitleFlags{UpdateOrder: true})
	_, err := env.svc.JobTitleService.CreateJobTitle(env.db, owner.ID, &dto.JobTitleRequest{Title: "Закройщик"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateJobTitle)

	titles, err := env.svc.JobTitleService.ListJobTitles(env.db, owner.ID)
	require.NoError(t, err)
	var founderSlug string
	for _, jt := range titles {
		if jt.IsFounder {
			founderSlug = jt.Slug
		}
	}
	require.NotEmpty(t, founderSlug)

	assert.ErrorIs(t, env.svc.JobTitleService.DeleteJobTitle(env.db, owner.ID, founderSlug), apperrors.ErrFounderJobTitle)
	_, err = env.svc.JobTitleService.UpdateJobTitle(env.db, owner.ID, founderSlug, &dto.JobTitleRequest{Title: "Никто"})
	assert.ErrorIs(t, err, apperrors.ErrFounderJobTitle)

	worker, _ := env.user(t, "worker", models.TierNone)
	env.hire(t, owner, worker, org.Slug, cutter.Slug)
	assert.ErrorIs(t, env.svc.JobTitleService.DeleteJobTitle(env.db, owner.ID, cutter.Slug), apperrors.ErrJobTitleInUse)

	_, err = env.svc.JobTitleService.CreateJobTitle(env.db, worker.ID, &dto.JobTitleRequest{Title: "Самозванец"})
	assert.ErrorIs(t, err, errDenied)

	spare := env.jobTitle(t, owner, "Запасной", models.JobTitleFlags{})
	require.NoError(t, env.svc.JobTitleService.DeleteJobTitle(env.db, owner.ID, spare.Slug))
}

func TestJobTitle_RenameRegeneratesSlug(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.user(t, "owner", models.TierBasic)
	env.createOrg(t, owner, "Цех")
	svc := env.svc.JobTitleService

	cutter := env.jobTitle(t, owner, "Закройщик", models.JobTitleFlags{UpdateOrder: true})

	// только флаги: slug прежний
	same, err := svc.UpdateJobTitle(env.db, owner.ID, cutter.Slug, &dto.JobTitleRequest{
		Title:         "Закройщик",
		JobTitleFlags: models.JobTitleFlags{UpdateOrder: true, DeleteOrder: true},
	})
	require.NoError(t, err)
	assert.Equal(t, cutter.Slug, same.Slug)

	renamed, err := svc.UpdateJobTitle(env.db, owner.ID, cutter.Slug, &dto.JobTitleRequest{Title: "Портной"})
	require.NoError(t, err)
	assert.NotEqual(t, cutter.Slug, renamed.Slug)
	assert.Equal(t, "Портной", renamed.Title)

	_, err = svc.UpdateJobTitle(env.db, owner.ID, cutter.Slug, &dto.JobTitleRequest{Title: "Закройщик"})
	assert.ErrorIs(t, err, apperrors.ErrJobTitleNotFound, "старый slug больше не найден")

	list, err := svc.ListJobTitles(env.db, owner.ID)
	require.NoError(t, err)
	var found bool
	for _, jt := range list {
		if jt.Slug == renamed.Slug {
			found = true
			assert.Equal(t, "Портной", jt.Title)
		}
	}
	assert.True(t, found)
}
