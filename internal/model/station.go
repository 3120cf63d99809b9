package model

import "time"

// AdminStatus is the operational status set by station operators.
type AdminStatus string

const (
	AdminOperational AdminStatus = "OPERATIONAL"
	AdminOffline     AdminStatus = "OFFLINE"
	AdminMaintenance AdminStatus = "MAINTENANCE"
	AdminComingSoon  AdminStatus = "COMING_SOON"
)

// Station is the subset of a charging station record the trust engine reads.
// Station CRUD lives outside this service.
type Station struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	AdminStatus       AdminStatus `json:"adminStatus"`
	AvailableChargers int         `json:"availableChargers"`
	TotalChargers     int         `json:"totalChargers"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// PrimaryStatus is the single display state shown for a station.
type PrimaryStatus string

const (
	StatusWorking             PrimaryStatus = "WORKING"
	StatusBusy                PrimaryStatus = "BUSY"
	StatusNotWorking          PrimaryStatus = "NOT_WORKING"
	StatusNotRecentlyVerified PrimaryStatus = "NOT_RECENTLY_VERIFIED"
)

// StationStatusResponse is the API response for GET /api/stations/:id/status.
type StationStatusResponse struct {
	StationID         string              `json:"stationId"`
	Status            PrimaryStatus       `json:"status"`
	AdminStatus       AdminStatus         `json:"adminStatus"`
	AvailableChargers int                 `json:"availableChargers"`
	TotalChargers     int                 `json:"totalChargers"`
	Summary           VerificationSummary `json:"summary"`
}
