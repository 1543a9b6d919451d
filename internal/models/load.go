package models

import "time"

type LoadStatus string

const (
	LoadStatusPending   LoadStatus = "pending"
	LoadStatusAccepted  LoadStatus = "accepted"
	LoadStatusInTransit LoadStatus = "in_transit"
	LoadStatusDelivered LoadStatus = "delivered"
	LoadStatusCancelled LoadStatus = "cancelled"
)

type Address struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

type Load struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"companyId"`
	ReferenceNumber string     `json:"referenceNumber"`
	Pickup          Address    `json:"pickup"`
	Delivery        Address    `json:"delivery"`
	PickupDate      time.Time  `json:"pickupDate"`
	DeliveryDate    time.Time  `json:"deliveryDate"`
	Commodity       string     `json:"commodity,omitempty"`
	WeightLbs       *float64   `json:"weightLbs,omitempty"`
	Hazmat          bool       `json:"hazmat"`
	SpecialHandling string     `json:"specialHandling,omitempty"`
	Rate            Money      `json:"rate"`
	Status          LoadStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusRejected  AssignmentStatus = "rejected"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

type LoadAssignment struct {
	ID         string           `json:"id"`
	CompanyID  string           `json:"companyId"`
	LoadID     string           `json:"loadId"`
	DriverID   string           `json:"driverId"`
	Status     AssignmentStatus `json:"status"`
	AssignedAt time.Time        `json:"assignedAt"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Active assignments block a second assignment on the same load.
func (a LoadAssignment) Active() bool {
	return a.Status == AssignmentStatusPending || a.Status == AssignmentStatusAccepted
}

type TrackingStatus string

const (
	TrackingPickupArrived   TrackingStatus = "pickup_arrived"
	TrackingPickupCompleted TrackingStatus = "pickup_completed"
	TrackingInTransit       TrackingStatus = "in_transit"
	TrackingDeliveryArrived TrackingStatus = "delivery_arrived"
	TrackingDelivered       TrackingStatus = "delivered"
	TrackingFailed          TrackingStatus = "failed"
)

type LoadTracking struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"companyId"`
	LoadID    string         `json:"loadId"`
	Status    TrackingStatus `json:"status"`
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type LoadDocument struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"companyId"`
	LoadID     string    `json:"loadId"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
