package repositories

import (
	"testing"
	"time"

	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestAuditLogRepository(t *testing.T) {
	suite.Run(t, new(AuditLogRepositorySuite))
}

type AuditLogRepositorySuite struct {
	suite.Suite
	db   *database.DB
	repo AuditLogRepositoryInterface
	user *models.User
}

func (s *AuditLogRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewAuditLogRepository(s.db.DB)
	s.user = database.CreateTestUser(s.T(), s.db, "viewer@example.com")
}

func (s *AuditLogRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *AuditLogRepositorySuite) TestCreate() {
	log := &models.AuditLog{
		UserID:     &s.user.ID,
		Action:     models.AuditActionLogin,
		Resource:   "user",
		ResourceID: s.user.ID.String(),
		IPAddress:  "192.168.1.1",
		UserAgent:  "Mozilla/5.0",
	}

	s.NoError(s.repo.Create(log))
	s.NotEqual(uuid.Nil, log.ID)
	s.NotZero(log.CreatedAt)

	s.Error(s.repo.Create(nil))
}

func (s *AuditLogRepositorySuite) TestCreate_Anonymous() {
	log := &models.AuditLog{
		Action:    models.AuditActionFailedLogin,
		Resource:  "auth",
		IPAddress: "10.0.0.1",
		Metadata:  models.AuditMetadata{"email": "nobody@example.com"},
	}

	s.NoError(s.repo.Create(log))

	logs, total, err := s.repo.List(models.AuditLogFilter{Action: models.AuditActionFailedLogin}, 0, 10)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(logs, 1)
	s.Nil(logs[0].UserID)
	s.Equal("nobody@example.com", logs[0].MetadataString("email"))
}

func (s *AuditLogRepositorySuite) TestList_ByUserNewestFirst() {
	base := time.Now().Add(-time.Hour)
	for i, action := range []string{models.AuditActionLogin, models.AuditActionReportViewed, models.AuditActionLogout} {
		s.NoError(s.repo.Create(&models.AuditLog{
			UserID:    &s.user.ID,
			Action:    action,
			Resource:  "user",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, total, err := s.repo.List(models.AuditLogFilter{UserID: s.user.ID}, 0, 2)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(logs, 2)
	s.Equal(models.AuditActionLogout, logs[0].Action)
	s.Equal(models.AuditActionReportViewed, logs[1].Action)
}

func (s *AuditLogRepositorySuite) TestDeleteOlderThan() {
	s.NoError(s.repo.Create(&models.AuditLog{Action: models.AuditActionLogin, Resource: "user", CreatedAt: time.Now().Add(-48 * time.Hour)}))
	s.NoError(s.repo.Create(&models.AuditLog{Action: models.AuditActionLogin, Resource: "user"}))

	deleted, err := s.repo.DeleteOlderThan(24 * time.Hour)
	s.NoError(err)
	s.Equal(int64(1), deleted)

	_, total, err := s.repo.List(models.AuditLogFilter{}, 0, 10)
	s.NoError(err)
	s.Equal(int64(1), total)
}

func (s *AuditLogRepositorySuite) TestList_ByUserAndAction() {
	other := database.CreateTestUser(s.T(), s.db, "other@example.com")
	for _, entry := range []struct {
		user   *models.User
		action string
	}{
		{s.user, models.AuditActionReportViewed},
		{s.user, models.AuditActionLogin},
		{s.user, models.AuditActionReportViewed},
		{other, models.AuditActionReportViewed},
	} {
		s.NoError(s.repo.Create(&models.AuditLog{UserID: &entry.user.ID, Action: entry.action, Resource: models.AuditResourceReport}))
	}

	logs, total, err := s.repo.List(models.AuditLogFilter{UserID: s.user.ID, Action: models.AuditActionReportViewed}, 0, 10)
	s.NoError(err)
	s.Equal(int64(2), total)
	s.Len(logs, 2)
	for _, entry := range logs {
		s.Equal(s.user.ID, *entry.UserID)
	}
}
