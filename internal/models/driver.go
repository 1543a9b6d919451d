package models

import "time"

type DriverStatus string

const (
	DriverStatusActive    DriverStatus = "active"
	DriverStatusInactive  DriverStatus = "inactive"
	DriverStatusOnLeave   DriverStatus = "on_leave"
	DriverStatusSuspended DriverStatus = "suspended"
)

// DefaultDriverRating is shown while a driver has no ratings yet.
const DefaultDriverRating = 5.0

type Driver struct {
	ID            string       `json:"id"`
	CompanyID     string       `json:"companyId"`
	UserID        string       `json:"userId"`
	LicenseNumber string       `json:"licenseNumber"`
	LicenseClass  string       `json:"licenseClass,omitempty"`
	LicenseExpiry *time.Time   `json:"licenseExpiry,omitempty"`
	VehicleType   string       `json:"vehicleType,omitempty"`
	VehicleVIN    string       `json:"vehicleVin,omitempty"`
	VehiclePlate  string       `json:"vehiclePlate,omitempty"`
	Status        DriverStatus `json:"status"`
	// Rating is a materialized average of DriverRating rows; only the
	// reconciliation path writes it.
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DriverDocumentType string

const (
	DriverDocLicense         DriverDocumentType = "license"
	DriverDocInsurance       DriverDocumentType = "insurance"
	DriverDocMedicalCert     DriverDocumentType = "medical_cert"
	DriverDocBackgroundCheck DriverDocumentType = "background_check"
)

type DriverDocument struct {
	ID          string             `json:"id"`
	CompanyID   string             `json:"companyId"`
	DriverID    string             `json:"driverId"`
	Type        DriverDocumentType `json:"type"`
	DocumentURL string             `json:"documentUrl"`
	ExpiryDate  *time.Time         `json:"expiryDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type DriverLocation struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	DriverID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DriverRating struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	DriverID  string    `json:"driverId"`
	LoadID    *string   `json:"loadId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingStats is the aggregate the driver's cached rating is derived from.
type RatingStats struct {
	Count int
	Sum   int64
}
