// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type UpgradeRequest struct {
	Tier string `json:"tier"`
}

type SubscriptionResponse struct {
	Tier    string     `json:"tier"`
	EndDate *time.Time `json:"endDate"`
}

type UpgradeResponse struct {
	Message      string               `json:"message"`
	Subscription SubscriptionResponse `json:"subscription"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Tier:      u.Tier,
		CreatedAt: u.CreatedAt,
	}
}

func ToSubscriptionResponse(u *User) SubscriptionResponse {
	return SubscriptionResponse{
		Tier:    u.Tier,
		EndDate: u.SubscriptionEndDate,
	}
}
