package model

import (
	"time"

	"github.com/google/uuid"
)

type BedStatus string

const (
	BedStatusAvailable   BedStatus = "AVAILABLE"
	BedStatusOccupied    BedStatus = "OCCUPIED"
	BedStatusMaintenance BedStatus = "MAINTENANCE"
)

func (s BedStatus) Valid() bool {
	switch s {
	case BedStatusAvailable, BedStatusOccupied, BedStatusMaintenance:
		return true
	}
	return false
}

type BedType string

const (
	BedTypeICU       BedType = "ICU"
	BedTypeGeneral   BedType = "GENERAL"
	BedTypeEmergency BedType = "EMERGENCY"
	BedTypePediatric BedType = "PEDIATRIC"
	BedTypeMaternity BedType = "MATERNITY"
)

// Bed patient fields and AdmissionDate are set if and only if Status is
// OCCUPIED.
type Bed struct {
	Base
	BedNumber      string     `json:"bed_number" db:"bed_number"`
	BedType        BedType    `json:"bed_type" db:"bed_type"`
	Status         BedStatus  `json:"status" db:"status"`
	PatientName    *string    `json:"patient_name,omitempty" db:"patient_name"`
	PatientContact *string    `json:"patient_contact,omitempty" db:"patient_contact"`
	AdmissionDate  *time.Time `json:"admission_date,omitempty" db:"admission_date"`
	DoctorID       *uuid.UUID `json:"doctor_id,omitempty" db:"doctor_id"`
	NurseID        *uuid.UUID `json:"nurse_id,omitempty" db:"nurse_id"`
	HospitalID     uuid.UUID  `json:"hospital_id" db:"hospital_id"`
}

func (b *Bed) Clone() *Bed {
	c := *b
	c.PatientName = cloneString(b.PatientName)
	c.PatientContact = cloneString(b.PatientContact)
	c.AdmissionDate = cloneTime(b.AdmissionDate)
	c.DoctorID = cloneUUID(b.DoctorID)
	c.NurseID = cloneUUID(b.NurseID)
	return &c
}

// Occupy moves the bed to OCCUPIED with the given patient.
func (b *Bed) Occupy(a BedAssignment, at time.Time) {
	name, contact := a.PatientName, a.PatientContact
	b.PatientName = &name
	b.PatientContact = &contact
	b.AdmissionDate = &at
	b.DoctorID = cloneUUID(a.DoctorID)
	b.NurseID = cloneUUID(a.NurseID)
	b.Status = BedStatusOccupied
}

// Vacate clears every patient field and returns the bed to AVAILABLE.
func (b *Bed) Vacate() {
	b.PatientName = nil
	b.PatientContact = nil
	b.AdmissionDate = nil
	b.DoctorID = nil
	b.NurseID = nil
	b.Status = BedStatusAvailable
}

type CreateBedRequest struct {
	BedNumber  string    `json:"bed_number" binding:"required" validate:"required"`
	BedType    BedType   `json:"bed_type" binding:"required,oneof=ICU GENERAL EMERGENCY PEDIATRIC MATERNITY" validate:"required,oneof=ICU GENERAL EMERGENCY PEDIATRIC MATERNITY"`
	Status     BedStatus `json:"status" binding:"omitempty,oneof=AVAILABLE MAINTENANCE" validate:"omitempty,oneof=AVAILABLE MAINTENANCE"`
	HospitalID uuid.UUID `json:"hospital_id" binding:"required" validate:"required"`
}

// BedAttributes is the admin override applied by UpdateAttributes.
type BedAttributes struct {
	BedType BedType   `json:"bed_type" binding:"required,oneof=ICU GENERAL EMERGENCY PEDIATRIC MATERNITY" validate:"required,oneof=ICU GENERAL EMERGENCY PEDIATRIC MATERNITY"`
	Status  BedStatus `json:"status" binding:"required,oneof=AVAILABLE OCCUPIED MAINTENANCE" validate:"required,oneof=AVAILABLE OCCUPIED MAINTENANCE"`
}

type BedAssignment struct {
	PatientName    string     `json:"patient_name" binding:"required" validate:"required"`
	PatientContact string     `json:"patient_contact" binding:"required" validate:"required"`
	DoctorID       *uuid.UUID `json:"doctor_id"`
	NurseID        *uuid.UUID `json:"nurse_id"`
}
