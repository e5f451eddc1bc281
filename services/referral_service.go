package services

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"nightlife-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferralPoints define how much each attribution kind is worth
// (tunable via REFERRAL_SIGNUP_POINTS / REFERRAL_RSVP_POINTS)
type ReferralPoints struct {
	SignupPoints int64
	RSVPPoints   int64
}

var DefaultReferralPoints = ReferralPoints{
	SignupPoints: 50,
	RSVPPoints:   25,
}

// ReferralPointsFromEnv returns the defaults overridden by env vars where set.
func ReferralPointsFromEnv() ReferralPoints {
	pts := DefaultReferralPoints
	if v := os.Getenv("REFERRAL_SIGNUP_POINTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			pts.SignupPoints = n
		}
	}
	if v := os.Getenv("REFERRAL_RSVP_POINTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			pts.RSVPPoints = n
		}
	}
	return pts
}

var (
	ErrInvalidReferral     = errors.New("invalid referral")
	ErrUnknownReferralCode = errors.New("unknown referral code")
)

type ReferralService struct {
	DB     *gorm.DB
	Points ReferralPoints
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{DB: db, Points: ReferralPointsFromEnv()}
}

// ReferralResult is what recordReferral hands back to the caller.
// AlreadyCredited means the (referred, kind, target) key was seen before and
// nothing new was written.
type ReferralResult struct {
	Event           *models.ReferralEvent `json:"event"`
	AlreadyCredited bool                  `json:"already_credited"`
}

func (s *ReferralService) pointsForKind(kind string) (int64, bool) {
	switch kind {
	case models.ReferralKindSignup:
		return s.Points.SignupPoints, true
	case models.ReferralKindRSVP:
		return s.Points.RSVPPoints, true
	}
	return 0, false
}

// RecordReferral attributes points to the owner of referrerCode for a signup
// or RSVP. Crediting is idempotent per (referredUserID, kind, targetID): the
// unique index on referral_events carries the guarantee, so a concurrent
// duplicate fails the insert and is folded into the already-credited path
// rather than racing a check-then-insert.
func (s *ReferralService) RecordReferral(referrerCode, referredUserID, kind, targetID string) (*ReferralResult, error) {
	points, ok := s.pointsForKind(kind)
	if !ok {
		return nil, ErrInvalidReferral
	}
	if referredUserID == "" || targetID == "" {
		return nil, ErrInvalidReferral
	}

	code := strings.ToUpper(strings.TrimSpace(referrerCode))
	var referrer models.UserProfile
	if err := s.DB.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReferralCode
		}
		return nil, err
	}
	if referrer.ExternalUserID == referredUserID {
		return nil, ErrInvalidReferral
	}

	event := models.ReferralEvent{
		ID:             uuid.NewString(),
		ReferrerUserID: referrer.ExternalUserID,
		ReferredUserID: referredUserID,
		Kind:           kind,
		TargetID:       targetID,
		Points:         points,
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		return s.creditReferrer(tx, referrer.ExternalUserID, kind, points)
	})

	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			// Someone already credited this key — load the original event.
			var existing models.ReferralEvent
			if err := s.DB.Where("referred_user_id = ? AND kind = ? AND target_id = ?",
				referredUserID, kind, targetID).First(&existing).Error; err != nil {
				return nil, err
			}
			return &ReferralResult{Event: &existing, AlreadyCredited: true}, nil
		}
		return nil, txErr
	}

	log.Printf("🎟️ Referral credited: %s → +%d pts (%s, target %s)",
		referrer.ExternalUserID, points, kind, targetID)
	return &ReferralResult{Event: &event}, nil
}

// creditReferrer bumps the denormalized running total. The increment is a
// store-level `total_points + ?` expression so concurrent credits for the
// same referrer never lose updates.
func (s *ReferralService) creditReferrer(tx *gorm.DB, referrerUserID, kind string, points int64) error {
	stats := models.PromoterStats{ID: uuid.NewString(), UserID: referrerUserID}
	if err := tx.Where(models.PromoterStats{UserID: referrerUserID}).FirstOrCreate(&stats).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"total_points": gorm.Expr("total_points + ?", points),
	}
	switch kind {
	case models.ReferralKindSignup:
		updates["signup_count"] = gorm.Expr("signup_count + 1")
	case models.ReferralKindRSVP:
		updates["rsvp_count"] = gorm.Expr("rsvp_count + 1")
	}

	return tx.Model(&models.PromoterStats{}).
		Where("user_id = ?", referrerUserID).
		Updates(updates).Error
}

// GetLeaderboard aggregates referral activity for a venue: RSVPs target the
// venue's events, signups target the venue itself. Ordering is total points
// descending with ties broken by referrer id ascending so ranks are stable.
func (s *ReferralService) GetLeaderboard(venueID string) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := s.DB.Raw(`
		SELECT re.referrer_user_id AS referrer_id,
		       SUM(CASE WHEN re.kind = 'rsvp' THEN 1 ELSE 0 END)   AS rsvp_count,
		       SUM(CASE WHEN re.kind = 'signup' THEN 1 ELSE 0 END) AS signup_count,
		       SUM(re.points)                                      AS total_points
		FROM referral_events re
		WHERE re.target_id = ?
		   OR re.target_id IN (SELECT id FROM events WHERE venue_id = ?)
		GROUP BY re.referrer_user_id
		ORDER BY total_points DESC, referrer_id ASC
	`, venueID, venueID).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

type LeaderboardEntry struct {
	ReferrerID  string `json:"referrer_id"`
	RSVPCount   int64  `json:"rsvp_count"`
	SignupCount int64  `json:"signup_count"`
	TotalPoints int64  `json:"total_points"`
}

// EnsureProfile creates the local profile row (and mints the referral code)
// on first contact — idempotent per external user id.
func (s *ReferralService) EnsureProfile(externalUserID, username, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = models.UserProfile{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Username:       username,
		Email:          email,
		ReferralCode:   GenerateReferralCode(),
	}
	if err := s.DB.Create(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent first request — use theirs.
			if err2 := s.DB.Where("external_user_id = ?", externalUserID).First(&profile).Error; err2 == nil {
				return &profile, nil
			}
		}
		return nil, err
	}
	return &profile, nil
}
