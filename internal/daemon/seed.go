package daemon

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/PrepDesk/PrepDesk/internal/auth"
	"github.com/PrepDesk/PrepDesk/internal/config"
	"github.com/PrepDesk/PrepDesk/internal/db/controller/rbac"
	"github.com/PrepDesk/PrepDesk/internal/db/models"
)

const generatedPasswordBytes = 18

// Seed installs the permission catalog and the default roles, and creates the
// first administrator while the user table is empty. It is safe to run on every start.
func Seed(cfg *config.Config, conn *gorm.DB) error {
	ctx := context.Background()

	if err := rbac.EnsureCatalog(ctx, conn, auth.Catalog()); err != nil {
		return errors.Wrap(err, "failed to seed permission catalog")
	}

	for _, tmpl := range auth.DefaultRoles() {
		if _, err := rbac.EnsureRole(ctx, conn, tmpl); err != nil {
			return errors.Wrapf(err, "failed to seed role %s", tmpl.Name)
		}
	}

	var count int64
	if err := conn.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count users")
	}

	if count > 0 {
		return nil
	}

	password := cfg.Seed.AdminPassword
	if password == "" {
		var err error
		if password, err = generatePassword(); err != nil {
			return err
		}

		log.Warn().Str("username", cfg.Seed.AdminUsername).Str("password", password).
			Msg("created first administrator with a generated password, change it after login")
	}

	users := auth.NewLocalProvider(conn)

	admin, err := users.CreateUser(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminEmail, password, true)
	if err != nil {
		return errors.Wrap(err, "failed to create administrator")
	}

	if err = rbac.SetUserRoles(ctx, conn, admin.ID, []string{auth.RoleAdmin}); err != nil {
		return errors.Wrap(err, "failed to assign administrator role")
	}

	log.Info().Uint64("user_id", admin.ID).Str("username", admin.Username).Msg("administrator seeded")

	return nil
}

func generatePassword() (string, error) {
	b := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate password")
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
