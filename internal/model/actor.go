package model

import "time"

// RoleAdmin is the role claim required for moderation.
const RoleAdmin = "admin"

// Actor is an authenticated user, as asserted by the auth gateway.
type Actor struct {
	ID          string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role,omitempty"`
}

// IsAdmin reports whether the actor may moderate reports.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorRecord is the stored actor profile with its running trust points.
type ActorRecord struct {
	ID          string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	TrustPoints int       `json:"trustPoints"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TrustTier is a coarse reputation bucket derived from trust points.
type TrustTier string

const (
	TierNewcomer    TrustTier = "newcomer"
	TierContributor TrustTier = "contributor"
	TierEstablished TrustTier = "established"
	TierTrusted     TrustTier = "trusted"
)

// ActorProfileResponse is the API response for GET /api/users/:userId.
type ActorProfileResponse struct {
	UserID       string       `json:"userId"`
	DisplayName  string       `json:"displayName"`
	TrustPoints  int          `json:"trustPoints"`
	TrustTier    TrustTier    `json:"trustTier"`
	AccountAge   int          `json:"accountAge"`
	RecentEvents []TrustEvent `json:"recentEvents"`
}
