package models

import "time"

// XPPerLevel is the amount of experience needed to advance one level.
const XPPerLevel = 100

// LevelForXP derives the level for a given experience total.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/XPPerLevel) + 1
}

// NextStreak applies the calendar-day streak rule. Activity on the same day
// leaves the streak unchanged, activity exactly one day later extends it, and
// any longer gap (or first-ever activity) starts a new streak of 1.
func NextStreak(current int, lastActivityAt *time.Time, now time.Time) int {
	if lastActivityAt == nil {
		return 1
	}

	last := lastActivityAt.UTC()
	nowUTC := now.UTC()
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(nowUTC.Year(), nowUTC.Month(), nowUTC.Day(), 0, 0, 0, 0, time.UTC)

	switch int(nowDay.Sub(lastDay).Hours() / 24) {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// GamificationProfile is the derived per-user summary of the XP ledger.
// Level is always recomputed from xp inside the same transaction that
// changes xp, so the pair never diverges.
type GamificationProfile struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CentreID       uint       `gorm:"index;not null" json:"centre_id"`
	XP             int64      `gorm:"not null;default:0" json:"xp"`
	Level          int        `gorm:"not null;default:1" json:"level"`
	Streak         int        `gorm:"not null;default:0" json:"streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// XPTransaction is an append-only ledger entry. Amount is signed: grants are
// positive, deductions negative.
type XPTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"size:255;not null" json:"reason"`
	AwardedBy uint      `json:"awarded_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Badge is a named achievement granted to a user by staff.
type Badge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CentreID  uint      `gorm:"index;not null" json:"centre_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	AwardedBy uint      `json:"awarded_by"`
	CreatedAt time.Time `json:"created_at"`
}
