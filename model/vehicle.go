package model

import (
	"time"
)

// Vehicle is a fleet vehicle in the registry. The pipeline reads vehicles
// and only ever writes the brand field (best-effort backfill).
type Vehicle struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	PlateNo   string     `json:"plate_no" gorm:"index"`
	Brand     string     `json:"brand"`
	ModelName string     `json:"model_name"`
	ChassisNo string     `json:"chassis_no" gorm:"index"` // long-form identifier, stored uppercase
	Contracts []Contract `json:"contracts,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Contract is an insurance contract attached to a vehicle. At most one
// contract per vehicle has status active; the merger's lookup-before-write
// maintains that, not a database constraint.
type Contract struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	VehicleID          uint      `json:"vehicle_id" gorm:"index"`
	Status             string    `json:"status" gorm:"index"`
	Insurer            string    `json:"insurer"`
	PolicyNo           string    `json:"policy_no"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	PremiumAmount      float64   `json:"premium_amount"`
	TaxAmount          float64   `json:"tax_amount"`
	TotalAmount        float64   `json:"total_amount"`
	Coverage           string    `json:"coverage"`
	Installments       string    `json:"installments"`
	ApplicationFormURL string    `json:"application_form_url"`
	CertificateURL     string    `json:"certificate_url"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Contract status constants
const (
	ContractStatusActive = "active"
)

// Document kind constants
const (
	KindApplication = "application"
	KindCertificate = "certificate"
)
