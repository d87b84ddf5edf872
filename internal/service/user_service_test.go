package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
)

func newUserFixture(t *testing.T) (*userService, *memoryUserRepo, *recordingAudit) {
	t.Helper()

	repo := newMemoryUserRepo()
	audit := &recordingAudit{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewUserService(repo, audit, validate, zerolog.Nop()).(*userService)

	return svc, repo, audit
}

func TestCreateUserInActorCentre(t *testing.T) {
	svc, repo, audit := newUserFixture(t)

	admin := authz.Actor{UserID: 2, Role: models.RoleAdmin, CentreID: 5}
	created, err := svc.Create(context.Background(), admin, dto.UserCreateRequest{
		Name:  "New Student",
		Email: "student@example.com",
		Role:  "student",
	})
	require.NoError(t, err)
	require.Equal(t, uint(5), created.CentreID)
	require.Equal(t, models.RoleStudent, created.Role)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "user.create", audit.entries[0].Action)

	require.Len(t, repo.users, 1)
}

func TestCreateUserRejectsInvalidPayload(t *testing.T) {
	svc, repo, _ := newUserFixture(t)

	admin := authz.Actor{UserID: 2, Role: models.RoleAdmin, CentreID: 5}

	_, err := svc.Create(context.Background(), admin, dto.UserCreateRequest{
		Name:  "X",
		Email: "not-an-email",
		Role:  "student",
	})
	require.Error(t, err)

	// Accounts cannot be created with the platform role.
	_, err = svc.Create(context.Background(), admin, dto.UserCreateRequest{
		Name:  "Root Wannabe",
		Email: "root@example.com",
		Role:  "super_admin",
	})
	require.Error(t, err)

	require.Empty(t, repo.users)
}

func TestGetUserOwnership(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.users[7] = models.User{ID: 7, CentreID: 1, Role: models.RoleStudent, Name: "Student Seven"}

	owner := authz.Actor{UserID: 7, Role: models.RoleStudent, CentreID: 1}
	user, err := svc.Get(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Equal(t, "Student Seven", user.Name)

	stranger := authz.Actor{UserID: 8, Role: models.RoleStudent, CentreID: 1}
	_, err = svc.Get(context.Background(), stranger, 7)
	require.ErrorIs(t, err, authz.ErrForbidden)

	_, err = svc.Get(context.Background(), owner, 99)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsersScopedToCentre(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.users[1] = models.User{ID: 1, CentreID: 1, Role: models.RoleStudent}
	repo.users[2] = models.User{ID: 2, CentreID: 1, Role: models.RoleTeacher}
	repo.users[3] = models.User{ID: 3, CentreID: 2, Role: models.RoleStudent}

	staff := authz.Actor{UserID: 2, Role: models.RoleTeacher, CentreID: 1}
	_, total, err := svc.List(context.Background(), staff, "", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	listed, total, err := svc.List(context.Background(), staff, "student", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, models.RoleStudent, listed[0].Role)

	root := authz.Actor{UserID: 99, Role: models.RoleSuperAdmin, CentreID: 1}
	_, total, err = svc.List(context.Background(), root, "", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}

func TestLinkChildCreatesLink(t *testing.T) {
	svc, repo, audit := newUserFixture(t)
	repo.users[20] = models.User{ID: 20, CentreID: 1, Role: models.RoleParent, Name: "Parent"}
	repo.users[7] = models.User{ID: 7, CentreID: 1, Role: models.RoleStudent, Name: "Child"}

	admin := authz.Actor{UserID: 2, Role: models.RoleAdmin, CentreID: 1}
	err := svc.LinkChild(context.Background(), admin, 20, dto.LinkChildRequest{ChildID: 7})
	require.NoError(t, err)

	require.Equal(t, []uint{7}, repo.links[20])
	require.Len(t, audit.entries, 1)
	require.Equal(t, "user.link_child", audit.entries[0].Action)

	// The parent now resolves with the child attached.
	parent := authz.Actor{UserID: 20, Role: models.RoleParent, CentreID: 1}
	resolved, err := svc.ResolveActor(context.Background(), parent)
	require.NoError(t, err)
	require.Equal(t, []uint{7}, resolved.ChildIDs)
}

func TestLinkChildRejectsMismatchedAccounts(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.users[20] = models.User{ID: 20, CentreID: 1, Role: models.RoleParent}
	repo.users[7] = models.User{ID: 7, CentreID: 1, Role: models.RoleStudent}
	repo.users[8] = models.User{ID: 8, CentreID: 2, Role: models.RoleStudent}
	repo.users[3] = models.User{ID: 3, CentreID: 1, Role: models.RoleTeacher}

	admin := authz.Actor{UserID: 2, Role: models.RoleAdmin, CentreID: 1}

	// Child in another centre.
	err := svc.LinkChild(context.Background(), admin, 20, dto.LinkChildRequest{ChildID: 8})
	require.ErrorIs(t, err, ErrParentLinkInvalid)

	// Child is not a student.
	err = svc.LinkChild(context.Background(), admin, 20, dto.LinkChildRequest{ChildID: 3})
	require.ErrorIs(t, err, ErrParentLinkInvalid)

	// Parent is not a parent account.
	err = svc.LinkChild(context.Background(), admin, 3, dto.LinkChildRequest{ChildID: 7})
	require.ErrorIs(t, err, ErrParentLinkInvalid)

	// Unknown accounts surface as not found.
	err = svc.LinkChild(context.Background(), admin, 99, dto.LinkChildRequest{ChildID: 7})
	require.ErrorIs(t, err, ErrUserNotFound)

	require.Empty(t, repo.links)
}

func TestLinkChildCrossCentreForbidden(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.users[20] = models.User{ID: 20, CentreID: 2, Role: models.RoleParent}
	repo.users[7] = models.User{ID: 7, CentreID: 2, Role: models.RoleStudent}

	admin := authz.Actor{UserID: 2, Role: models.RoleAdmin, CentreID: 1}
	err := svc.LinkChild(context.Background(), admin, 20, dto.LinkChildRequest{ChildID: 7})
	require.ErrorIs(t, err, authz.ErrForbidden)
	require.Empty(t, repo.links)
}

func TestResolveActorFillsParentChildren(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.links[20] = []uint{7, 9}

	parent := authz.Actor{UserID: 20, Role: models.RoleParent, CentreID: 1}
	resolved, err := svc.ResolveActor(context.Background(), parent)
	require.NoError(t, err)
	require.Equal(t, []uint{7, 9}, resolved.ChildIDs)

	// Non-parent actors pass through untouched.
	student := authz.Actor{UserID: 7, Role: models.RoleStudent, CentreID: 1}
	resolved, err = svc.ResolveActor(context.Background(), student)
	require.NoError(t, err)
	require.Empty(t, resolved.ChildIDs)
}
