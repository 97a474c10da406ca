// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                  string     `db:"id"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	Name                string     `db:"name"`
	Tier                string     `db:"tier"`
	SubscriptionEndDate *time.Time `db:"subscription_end_date"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

// SubscriptionPeriod is how far an upgrade pushes the end date out.
const SubscriptionPeriod = 30 * 24 * time.Hour

func IsUpgradeTier(tier string) bool {
	return tier == TierPro || tier == TierEnterprise
}
