// Package dashboard provides the back office overview of accounts, subscriptions and plans.
package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
	"github.com/PrepDesk/PrepDesk/internal/logger"
	"github.com/PrepDesk/PrepDesk/internal/web/handler"
)

// Path is the path to the dashboard endpoint.
const Path = handler.APIPath + "/dashboard"

// Data represents the complete dashboard data.
type Data struct {
	Users         map[models.UserStatus]int64         `json:"users"`
	Subscriptions map[models.SubscriptionStatus]int64 `json:"subscriptions"`
	Entitled      int64                               `json:"entitled"`
	ActivePlans   int64                               `json:"activePlans"`
	GeneratedAt   time.Time                           `json:"generatedAt"`
}

// Service is the dashboard handler service.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if err := handler.Check(app, deps); err != nil {
		return err
	}

	s.db = deps.DB
	s.log = logger.For("web")

	app.Get(Path, auth.RequirePermission(deps.Auth, auth.PermDashboardView), s.Get)

	return nil
}

// Get returns the overview counters.
func (s *Service) Get(c fiber.Ctx) error {
	now := time.Now().UTC()
	db := s.db.WithContext(c.Context())

	data := Data{
		Users:         map[models.UserStatus]int64{},
		Subscriptions: map[models.SubscriptionStatus]int64{},
		GeneratedAt:   now,
	}

	var users []struct {
		Status models.UserStatus
		Total  int64
	}

	if err := db.Model(&models.User{}).Select("status, COUNT(*) AS total").Group("status").Scan(&users).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to count users")
		return err
	}

	for _, u := range users {
		data.Users[u.Status] = u.Total
	}

	var subs []struct {
		Status models.SubscriptionStatus
		Total  int64
	}

	err := db.Model(&models.Subscription{}).Select("status, COUNT(*) AS total").Group("status").Scan(&subs).Error
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count subscriptions")
		return err
	}

	for _, sub := range subs {
		data.Subscriptions[sub.Status] = sub.Total
	}

	err = db.Model(&models.Subscription{}).
		Where("status IN ?", []models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionCancelAtPeriodEnd}).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&data.Entitled).Error
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count entitled subscriptions")
		return err
	}

	if err = db.Model(&models.Plan{}).Where("is_active = ?", true).Count(&data.ActivePlans).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to count plans")
		return err
	}

	return c.JSON(data)
}
