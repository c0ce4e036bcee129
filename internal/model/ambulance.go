package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AmbulanceStatus string

const (
	AmbulanceStatusAvailable       AmbulanceStatus = "AVAILABLE"
	AmbulanceStatusDispatched      AmbulanceStatus = "DISPATCHED"
	AmbulanceStatusEnRoutePickup   AmbulanceStatus = "EN_ROUTE_PICKUP"
	AmbulanceStatusEnRouteHospital AmbulanceStatus = "EN_ROUTE_HOSPITAL"
	AmbulanceStatusMaintenance     AmbulanceStatus = "MAINTENANCE"
)

type EmergencyLevel string

const (
	EmergencyLevelLow      EmergencyLevel = "LOW"
	EmergencyLevelMedium   EmergencyLevel = "MEDIUM"
	EmergencyLevelHigh     EmergencyLevel = "HIGH"
	EmergencyLevelCritical EmergencyLevel = "CRITICAL"
)

// Ambulance status is a free-form label; any value may follow any other.
type Ambulance struct {
	Base
	VehicleNumber    string          `json:"vehicle_number" db:"vehicle_number"`
	Status           AmbulanceStatus `json:"status" db:"status"`
	CurrentLatitude  *float64        `json:"current_latitude,omitempty" db:"current_latitude"`
	CurrentLongitude *float64        `json:"current_longitude,omitempty" db:"current_longitude"`
	PickupAddress    *string         `json:"pickup_address,omitempty" db:"pickup_address"`
	PatientName      *string         `json:"patient_name,omitempty" db:"patient_name"`
	EmergencyLevel   *EmergencyLevel `json:"emergency_level,omitempty" db:"emergency_level"`
	EstimatedArrival *time.Time      `json:"estimated_arrival,omitempty" db:"estimated_arrival"`
	DriverID         *uuid.UUID      `json:"driver_id,omitempty" db:"driver_id"`
	HospitalID       *uuid.UUID      `json:"hospital_id,omitempty" db:"hospital_id"`
}

func (a *Ambulance) Clone() *Ambulance {
	c := *a
	c.CurrentLatitude = cloneFloat(a.CurrentLatitude)
	c.CurrentLongitude = cloneFloat(a.CurrentLongitude)
	c.PickupAddress = cloneString(a.PickupAddress)
	c.PatientName = cloneString(a.PatientName)
	if a.EmergencyLevel != nil {
		lvl := *a.EmergencyLevel
		c.EmergencyLevel = &lvl
	}
	c.EstimatedArrival = cloneTime(a.EstimatedArrival)
	c.DriverID = cloneUUID(a.DriverID)
	c.HospitalID = cloneUUID(a.HospitalID)
	return &c
}

// Apply merges a driver report. Validated reports always carry both
// coordinates; every other field is applied only when present.
func (a *Ambulance) Apply(u LocationUpdate) {
	if u.Latitude != nil && u.Longitude != nil {
		a.CurrentLatitude = cloneFloat(u.Latitude)
		a.CurrentLongitude = cloneFloat(u.Longitude)
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.PickupAddress != nil {
		a.PickupAddress = cloneString(u.PickupAddress)
	}
	if u.PatientName != nil {
		a.PatientName = cloneString(u.PatientName)
	}
	if u.EmergencyLevel != nil {
		lvl := *u.EmergencyLevel
		a.EmergencyLevel = &lvl
	}
}

// UpdatesTopic is the live channel for ambulances of a hospital.
func UpdatesTopic(hospitalID uuid.UUID) string {
	return fmt.Sprintf("ambulance-updates/%s", hospitalID)
}

type LocationUpdate struct {
	Latitude       *float64         `json:"latitude" binding:"required,gte=-90,lte=90" validate:"required,gte=-90,lte=90"`
	Longitude      *float64         `json:"longitude" binding:"required,gte=-180,lte=180" validate:"required,gte=-180,lte=180"`
	Status         *AmbulanceStatus `json:"status" binding:"omitempty,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE" validate:"omitempty,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE"`
	PickupAddress  *string          `json:"pickup_address"`
	PatientName    *string          `json:"patient_name"`
	EmergencyLevel *EmergencyLevel  `json:"emergency_level" binding:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

type CreateAmbulanceRequest struct {
	VehicleNumber string          `json:"vehicle_number" binding:"required" validate:"required"`
	Status        AmbulanceStatus `json:"status" binding:"omitempty,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE" validate:"omitempty,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE"`
	DriverID      *uuid.UUID      `json:"driver_id"`
	HospitalID    uuid.UUID       `json:"hospital_id" binding:"required" validate:"required"`
}

type UpdateAmbulanceRequest struct {
	VehicleNumber string          `json:"vehicle_number" binding:"required" validate:"required"`
	Status        AmbulanceStatus `json:"status" binding:"required,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE" validate:"required,oneof=AVAILABLE DISPATCHED EN_ROUTE_PICKUP EN_ROUTE_HOSPITAL MAINTENANCE"`
	DriverID      *uuid.UUID      `json:"driver_id"`
}
