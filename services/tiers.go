package services

import (
	"errors"

	"nightlife-platform/models"

	"gorm.io/gorm"
)

// Tier is a point-threshold bracket determining a promoter's commission rate
// and perks. Thresholds are strictly increasing; a promoter's current tier is
// the highest threshold at or below their points — always derived, never
// stored, so it cannot desync from the ledger.
type Tier struct {
	Name           string   `json:"name"`
	MinPoints      int64    `json:"min_points"`
	CommissionRate float64  `json:"commission_rate"`
	Perks          []string `json:"perks"`
}

// PromoterTiers ordered lowest to highest.
var PromoterTiers = []Tier{
	{Name: "bronze", MinPoints: 0, CommissionRate: 0.05, Perks: []string{"promoter dashboard"}},
	{Name: "silver", MinPoints: 500, CommissionRate: 0.08, Perks: []string{"promoter dashboard", "priority guest list"}},
	{Name: "gold", MinPoints: 2000, CommissionRate: 0.12, Perks: []string{"promoter dashboard", "priority guest list", "comped entry"}},
	{Name: "platinum", MinPoints: 5000, CommissionRate: 0.15, Perks: []string{"promoter dashboard", "priority guest list", "comped entry", "vip table credit"}},
}

// tierForPoints returns the current tier and the next one up (nil at the top).
func tierForPoints(points int64) (Tier, *Tier) {
	idx := 0
	for i, t := range PromoterTiers {
		if points >= t.MinPoints {
			idx = i
		}
	}
	if idx+1 < len(PromoterTiers) {
		next := PromoterTiers[idx+1]
		return PromoterTiers[idx], &next
	}
	return PromoterTiers[idx], nil
}

// TierStatus is the promoter-facing progress view. At the top tier NextTier
// is nil, PointsToNext is 0 and ProgressPercent reads saturated (100).
type TierStatus struct {
	Tier            string   `json:"tier"`
	CommissionRate  float64  `json:"commission_rate"`
	Perks           []string `json:"perks"`
	TotalPoints     int64    `json:"total_points"`
	NextTier        *string  `json:"next_tier,omitempty"`
	PointsToNext    int64    `json:"points_to_next"`
	ProgressPercent int      `json:"progress_percent"`
}

// GetTierStatus is a pure read over the denormalized total; a missing stats
// row just means zero points.
func (s *ReferralService) GetTierStatus(userID string) (*TierStatus, error) {
	var stats models.PromoterStats
	err := s.DB.Where("user_id = ?", userID).First(&stats).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	current, next := tierForPoints(stats.TotalPoints)
	status := &TierStatus{
		Tier:            current.Name,
		CommissionRate:  current.CommissionRate,
		Perks:           current.Perks,
		TotalPoints:     stats.TotalPoints,
		ProgressPercent: 100,
	}
	if next != nil {
		name := next.Name
		status.NextTier = &name
		status.PointsToNext = next.MinPoints - stats.TotalPoints
		span := next.MinPoints - current.MinPoints
		pct := int(100 * (stats.TotalPoints - current.MinPoints) / span)
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		status.ProgressPercent = pct
	}
	return status, nil
}
