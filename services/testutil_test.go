package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"nightlife-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB gives each test its own in-memory database. TranslateError is on
// so unique-constraint violations surface as gorm.ErrDuplicatedKey, same as
// the postgres setup in main.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.UserProfile{},
		&models.Follow{},
		&models.Venue{},
		&models.Promotion{},
		&models.Event{},
		&models.Ticket{},
		&models.VIPReservation{},
		&models.ReferralEvent{},
		&models.PromoterStats{},
		&models.PushSubscription{},
	))
	return db
}

func nowPlusDays(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

func seedProfile(t *testing.T, db *gorm.DB, externalUserID, username, code string) *models.UserProfile {
	t.Helper()
	profile := &models.UserProfile{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Username:       username,
		Email:          username + "@example.com",
		ReferralCode:   code,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func seedVenue(t *testing.T, db *gorm.DB, ownerUserID, name string) *models.Venue {
	t.Helper()
	venue := &models.Venue{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        name,
		Slug:        strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		City:        "berlin",
	}
	require.NoError(t, db.Create(venue).Error)
	return venue
}

func seedEvent(t *testing.T, db *gorm.DB, venue *models.Venue, name string) *models.Event {
	t.Helper()
	event := &models.Event{
		ID:       uuid.NewString(),
		VenueID:  venue.ID,
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		StartsAt: nowPlusDays(7),
		Status:   models.EventStatusPublished,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}
