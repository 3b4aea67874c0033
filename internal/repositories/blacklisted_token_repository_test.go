package repositories

import (
	"testing"
	"time"

	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/stretchr/testify/suite"
)

func TestBlacklistedTokenRepository(t *testing.T) {
	suite.Run(t, new(BlacklistedTokenRepositorySuite))
}

type BlacklistedTokenRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo BlacklistedTokenRepositoryInterface
	user *models.User
}

func (s *BlacklistedTokenRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewBlacklistedTokenRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "viewer@example.com")
}

func (s *BlacklistedTokenRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *BlacklistedTokenRepositorySuite) TestCreateAndIsBlacklisted() {
	token := &models.BlacklistedToken{JTI: "jti-1", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	s.NoError(s.repo.Create(token))

	blacklisted, err := s.repo.IsBlacklisted("jti-1")
	s.NoError(err)
	s.True(blacklisted)

	blacklisted, err = s.repo.IsBlacklisted("jti-unknown")
	s.NoError(err)
	s.False(blacklisted)
}

func (s *BlacklistedTokenRepositorySuite) TestCreate_SameJTITwice() {
	s.NoError(s.repo.Create(&models.BlacklistedToken{JTI: "jti-1", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	s.NoError(s.repo.Create(&models.BlacklistedToken{JTI: "jti-1", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}))
	s.Error(s.repo.Create(nil))
}

func (s *BlacklistedTokenRepositorySuite) TestDeleteExpired() {
	s.NoError(s.repo.Create(&models.BlacklistedToken{JTI: "old", UserID: s.user.ID, ExpiresAt: time.Now().Add(-time.Minute)}))
	s.NoError(s.repo.Create(&models.BlacklistedToken{JTI: "new", UserID: s.user.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	deleted, err := s.repo.DeleteExpired()
	s.NoError(err)
	s.Equal(int64(1), deleted)

	blacklisted, err := s.repo.IsBlacklisted("old")
	s.NoError(err)
	s.False(blacklisted)
}
