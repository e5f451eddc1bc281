package services

import (
	"testing"

	"nightlife-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReferralCreditsOnce(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "referrer-1", "ana", "ANACODE99")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	first, err := svc.RecordReferral("ANACODE99", "referred-1", models.ReferralKindRSVP, event.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCredited)
	assert.Equal(t, DefaultReferralPoints.RSVPPoints, first.Event.Points)
	assert.Equal(t, "referrer-1", first.Event.ReferrerUserID)

	// Identical retry must be a no-op returning the original event.
	second, err := svc.RecordReferral("ANACODE99", "referred-1", models.ReferralKindRSVP, event.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCredited)
	assert.Equal(t, first.Event.ID, second.Event.ID)

	var count int64
	db.Model(&models.ReferralEvent{}).Count(&count)
	assert.EqualValues(t, 1, count)

	var stats models.PromoterStats
	require.NoError(t, db.Where("user_id = ?", "referrer-1").First(&stats).Error)
	assert.Equal(t, DefaultReferralPoints.RSVPPoints, stats.TotalPoints)
	assert.EqualValues(t, 1, stats.RSVPCount)
	assert.EqualValues(t, 0, stats.SignupCount)
}

func TestRecordReferralCaseInsensitiveCode(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "referrer-1", "ana", "ANACODE99")

	res, err := svc.RecordReferral("  anacode99 ", "referred-1", models.ReferralKindSignup, "venue-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultReferralPoints.SignupPoints, res.Event.Points)
}

func TestRecordReferralSelfReferral(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "referrer-1", "ana", "ANACODE99")

	_, err := svc.RecordReferral("ANACODE99", "referrer-1", models.ReferralKindSignup, "venue-1")
	assert.ErrorIs(t, err, ErrInvalidReferral)

	var count int64
	db.Model(&models.ReferralEvent{}).Count(&count)
	assert.EqualValues(t, 0, count)
	db.Model(&models.PromoterStats{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRecordReferralUnknownCode(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	_, err := svc.RecordReferral("NOSUCHCODE", "referred-1", models.ReferralKindSignup, "venue-1")
	assert.ErrorIs(t, err, ErrUnknownReferralCode)
}

func TestRecordReferralRejectsBadKind(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "referrer-1", "ana", "ANACODE99")

	_, err := svc.RecordReferral("ANACODE99", "referred-1", "purchase", "venue-1")
	assert.ErrorIs(t, err, ErrInvalidReferral)
}

func TestRecordReferralDifferentKindsAccumulate(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "referrer-1", "ana", "ANACODE99")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	_, err := svc.RecordReferral("ANACODE99", "referred-1", models.ReferralKindSignup, venue.ID)
	require.NoError(t, err)
	_, err = svc.RecordReferral("ANACODE99", "referred-1", models.ReferralKindRSVP, event.ID)
	require.NoError(t, err)

	var stats models.PromoterStats
	require.NoError(t, db.Where("user_id = ?", "referrer-1").First(&stats).Error)
	assert.Equal(t, DefaultReferralPoints.SignupPoints+DefaultReferralPoints.RSVPPoints, stats.TotalPoints)
	assert.EqualValues(t, 1, stats.SignupCount)
	assert.EqualValues(t, 1, stats.RSVPCount)
}

func TestGetLeaderboardOrdering(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: ReferralPoints{SignupPoints: 10, RSVPPoints: 10}}

	seedProfile(t, db, "promoter-a", "ana", "CODEAAAA")
	seedProfile(t, db, "promoter-b", "ben", "CODEBBBB")
	seedProfile(t, db, "promoter-c", "cam", "CODECCCC")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	event := seedEvent(t, db, venue, "Friday Night")

	// promoter-a: 30 pts, promoter-b: 30 pts, promoter-c: 10 pts
	mustRecord := func(code, referred, kind, target string) {
		t.Helper()
		_, err := svc.RecordReferral(code, referred, kind, target)
		require.NoError(t, err)
	}
	mustRecord("CODEAAAA", "u1", models.ReferralKindRSVP, event.ID)
	mustRecord("CODEAAAA", "u2", models.ReferralKindRSVP, event.ID)
	mustRecord("CODEAAAA", "u3", models.ReferralKindSignup, venue.ID)
	mustRecord("CODEBBBB", "u4", models.ReferralKindRSVP, event.ID)
	mustRecord("CODEBBBB", "u5", models.ReferralKindSignup, venue.ID)
	mustRecord("CODEBBBB", "u6", models.ReferralKindSignup, venue.ID)
	mustRecord("CODECCCC", "u7", models.ReferralKindRSVP, event.ID)

	entries, err := svc.GetLeaderboard(venue.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Ties on points break by referrer id ascending.
	assert.Equal(t, "promoter-a", entries[0].ReferrerID)
	assert.Equal(t, "promoter-b", entries[1].ReferrerID)
	assert.Equal(t, "promoter-c", entries[2].ReferrerID)
	assert.EqualValues(t, 30, entries[0].TotalPoints)
	assert.EqualValues(t, 30, entries[1].TotalPoints)
	assert.EqualValues(t, 10, entries[2].TotalPoints)
	assert.EqualValues(t, 2, entries[0].RSVPCount)
	assert.EqualValues(t, 1, entries[0].SignupCount)
}

func TestGetLeaderboardIgnoresOtherVenues(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	seedProfile(t, db, "promoter-a", "ana", "CODEAAAA")
	venue := seedVenue(t, db, "owner-1", "Club Mono")
	other := seedVenue(t, db, "owner-2", "Bar Duo")
	otherEvent := seedEvent(t, db, other, "Other Night")

	_, err := svc.RecordReferral("CODEAAAA", "u1", models.ReferralKindRSVP, otherEvent.ID)
	require.NoError(t, err)

	entries, err := svc.GetLeaderboard(venue.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureProfileIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := &ReferralService{DB: db, Points: DefaultReferralPoints}

	first, err := svc.EnsureProfile("user-1", "ana", "ana@example.com")
	require.NoError(t, err)
	require.Len(t, first.ReferralCode, 8)

	second, err := svc.EnsureProfile("user-1", "ana", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)

	var count int64
	db.Model(&models.UserProfile{}).Count(&count)
	assert.EqualValues(t, 1, count)
}
