package model

// Hospital owns staff, beds and ambulances by reference. TotalBeds and
// AvailableBeds are refreshed by the counter-sync worker and are never used
// for statistics.
type Hospital struct {
	Base
	Name          string   `json:"name" db:"name"`
	Address       string   `json:"address" db:"address"`
	Phone         string   `json:"phone" db:"phone"`
	Latitude      *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64 `json:"longitude,omitempty" db:"longitude"`
	TotalBeds     int      `json:"total_beds" db:"total_beds"`
	AvailableBeds int      `json:"available_beds" db:"available_beds"`
}

func (h *Hospital) Clone() *Hospital {
	c := *h
	c.Latitude = cloneFloat(h.Latitude)
	c.Longitude = cloneFloat(h.Longitude)
	return &c
}

type CreateHospitalRequest struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

// HospitalStats is computed live from beds, staff and ambulances.
type HospitalStats struct {
	TotalBeds     int64 `json:"total_beds"`
	AvailableBeds int64 `json:"available_beds"`
	OccupiedBeds  int64 `json:"occupied_beds"`
	Doctors       int64 `json:"doctors"`
	Nurses        int64 `json:"nurses"`
	Drivers       int64 `json:"drivers"`
	Ambulances    int64 `json:"ambulances"`
}
