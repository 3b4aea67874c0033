package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

type UserRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo UserRepositoryInterface
}

func (s *UserRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewUserRepository(s.db.DB)
}

func (s *UserRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *UserRepositorySuite) newViewer(email string) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashed_password",
		Role:         models.RoleViewer,
		Permissions:  models.PermissionIndexViewer,
	}
	s.Require().NoError(s.repo.Create(user))
	return user
}

func (s *UserRepositorySuite) TestCreate() {
	user := s.newViewer(gofakeit.Email())

	s.NotEqual(uuid.Nil, user.ID)
	s.NotZero(user.CreatedAt)
	s.NotZero(user.UpdatedAt)
}

func (s *UserRepositorySuite) TestCreate_DuplicateEmail() {
	s.newViewer("dup@example.com")

	err := s.repo.Create(&models.User{Email: "dup@example.com", PasswordHash: "x", Role: models.RoleViewer})
	s.ErrorIs(err, ErrUserAlreadyExists)
}

func (s *UserRepositorySuite) TestCreate_InvalidUser() {
	err := s.repo.Create(&models.User{Email: "not-an-email", Role: models.RoleViewer})
	s.Error(err)
	s.NotErrorIs(err, ErrUserAlreadyExists)

	s.Error(s.repo.Create(nil))
}

func (s *UserRepositorySuite) TestGetByEmail() {
	user := s.newViewer("viewer@example.com")

	found, err := s.repo.GetByEmail("Viewer@Example.com")
	s.NoError(err)
	s.Equal(user.ID, found.ID)
	s.Equal(models.PermissionIndexViewer, found.Permissions)

	_, err = s.repo.GetByEmail("nonexistent@example.com")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(uuid.New())
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositorySuite) TestUpdatePermissions() {
	user := s.newViewer("viewer@example.com")

	err := s.repo.UpdatePermissions(user.ID, []string{models.PermissionReservationsViewer, models.PermissionIndexViewer})
	s.NoError(err)

	updated, err := s.repo.GetByID(user.ID)
	s.NoError(err)
	s.True(updated.HasPermission(models.PermissionReservationsViewer))
	s.True(updated.HasPermission(models.PermissionIndexViewer))

	s.Error(s.repo.UpdatePermissions(user.ID, []string{"not a codename"}))
	s.ErrorIs(s.repo.UpdatePermissions(uuid.New(), []string{models.PermissionIndexViewer}), ErrUserNotFound)
}

func (s *UserRepositorySuite) TestFailedLoginAttemptsAndUnlock() {
	user := s.newViewer("locked@example.com")

	user.Lock()
	s.NoError(s.repo.UpdateFailedLoginAttempts(user))

	locked, err := s.repo.GetByID(user.ID)
	s.NoError(err)
	s.True(locked.IsLocked())
	s.Equal(models.MaxFailedLoginAttempts, locked.FailedLoginAttempts)

	s.NoError(s.repo.UnlockAccount(user.ID))

	unlocked, err := s.repo.GetByID(user.ID)
	s.NoError(err)
	s.False(unlocked.IsLocked())
	s.Equal(0, unlocked.FailedLoginAttempts)
}

func (s *UserRepositorySuite) TestUpdateLastLogin() {
	user := s.newViewer("viewer@example.com")
	at := time.Now().UTC().Truncate(time.Second)

	s.NoError(s.repo.UpdateLastLogin(user.ID, at))

	updated, err := s.repo.GetByID(user.ID)
	s.NoError(err)
	s.Require().NotNil(updated.LastLoginAt)
	s.True(updated.LastLoginAt.Equal(at))
}

func (s *UserRepositorySuite) TestDelete() {
	user := s.newViewer("delete@example.com")

	s.NoError(s.repo.Delete(user.ID))

	_, err := s.repo.GetByID(user.ID)
	s.ErrorIs(err, ErrUserNotFound)

	s.ErrorIs(s.repo.Delete(user.ID), ErrUserNotFound)
}

func (s *UserRepositorySuite) TestListUsers() {
	for i := 0; i < 5; i++ {
		s.newViewer(fmt.Sprintf("user%d@example.com", i))
	}

	users, total, err := s.repo.ListUsers(0, 3)
	s.NoError(err)
	s.Equal(int64(5), total)
	s.Len(users, 3)
	s.Equal("user0@example.com", users[0].Email)

	users, _, err = s.repo.ListUsers(3, 3)
	s.NoError(err)
	s.Len(users, 2)
}
