// Package memory provides an in-memory directory store used by tests and
// single-process deployments (database.driver=memory).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository"
)

// state holds every table behind one lock so cross-entity writes such as
// user deletion stay atomic. Values are cloned on the way in and out.
type state struct {
	mu         sync.RWMutex
	hospitals  map[uuid.UUID]*model.Hospital
	users      map[uuid.UUID]*model.User
	beds       map[uuid.UUID]*model.Bed
	ambulances map[uuid.UUID]*model.Ambulance
	workHours  map[uuid.UUID]*model.WorkHour
	now        func() time.Time
}

// NewStore returns a Store whose repositories share one in-memory state.
func NewStore() *repository.Store {
	s := &state{
		hospitals:  make(map[uuid.UUID]*model.Hospital),
		users:      make(map[uuid.UUID]*model.User),
		beds:       make(map[uuid.UUID]*model.Bed),
		ambulances: make(map[uuid.UUID]*model.Ambulance),
		workHours:  make(map[uuid.UUID]*model.WorkHour),
		now:        func() time.Time { return time.Now().UTC() },
	}
	return &repository.Store{
		Hospitals:  &hospitalRepository{s},
		Users:      &userRepository{s},
		Beds:       &bedRepository{s},
		Ambulances: &ambulanceRepository{s},
		WorkHours:  &workHourRepository{s},
		Ping:       func(context.Context) error { return nil },
	}
}

func (s *state) stamp(b *model.Base) {
	now := s.now()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func sameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

type hospitalRepository struct{ *state }

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hospitals {
		if strings.EqualFold(h.Name, hospital.Name) {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&hospital.Base)
	r.hospitals[hospital.ID] = hospital.Clone()
	return nil
}

func (r *hospitalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hospitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h.Clone(), nil
}

func (r *hospitalRepository) GetByName(ctx context.Context, name string) (*model.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.hospitals {
		if strings.EqualFold(h.Name, name) {
			return h.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *hospitalRepository) Update(ctx context.Context, hospital *model.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.hospitals[hospital.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, h := range r.hospitals {
		if id != hospital.ID && strings.EqualFold(h.Name, hospital.Name) {
			return repository.ErrDuplicate
		}
	}
	hospital.CreatedAt = current.CreatedAt
	hospital.TotalBeds = current.TotalBeds
	hospital.AvailableBeds = current.AvailableBeds
	r.stamp(&hospital.Base)
	r.hospitals[hospital.ID] = hospital.Clone()
	return nil
}

func (r *hospitalRepository) List(ctx context.Context) ([]*model.Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *hospitalRepository) UpdateCounters(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hospitals[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.TotalBeds = totalBeds
	h.AvailableBeds = availableBeds
	h.UpdatedAt = r.now()
	return nil
}

type userRepository struct{ *state }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&user.Base)
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *userRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.VerificationCode != nil && *u.VerificationCode == code })
}

func (r *userRepository) GetByResetCode(ctx context.Context, code string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ResetCode != nil && *u.ResetCode == code })
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = current.CreatedAt
	r.stamp(&user.Base)
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	for _, b := range r.beds {
		if b.DoctorID != nil && *b.DoctorID == id {
			b.DoctorID = nil
		}
		if b.NurseID != nil && *b.NurseID == id {
			b.NurseID = nil
		}
	}
	for _, a := range r.ambulances {
		if a.DriverID != nil && *a.DriverID == id {
			a.DriverID = nil
		}
	}
	for wid, w := range r.workHours {
		if w.UserID == id {
			delete(r.workHours, wid)
		}
	}
	return nil
}

func (r *userRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, roles ...model.Role) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.User, 0)
	for _, u := range r.users {
		if !sameID(u.HospitalID, &hospitalID) || !roleIn(u.Role, roles) {
			continue
		}
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func roleIn(role model.Role, roles []model.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r *userRepository) CountByHospitalAndRole(ctx context.Context, hospitalID uuid.UUID, role model.Role) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if sameID(u.HospitalID, &hospitalID) && u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *userRepository) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.ClearExpiredCodes(now) {
			n++
		}
	}
	return n, nil
}

type bedRepository struct{ *state }

func (r *bedRepository) Create(ctx context.Context, bed *model.Bed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.beds {
		if b.BedNumber == bed.BedNumber {
			return repository.ErrDuplicate
		}
	}
	r.stamp(&bed.Base)
	r.beds[bed.ID] = bed.Clone()
	return nil
}

func (r *bedRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.beds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *bedRepository) GetByNumber(ctx context.Context, bedNumber string) (*model.Bed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.beds {
		if b.BedNumber == bedNumber {
			return b.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *bedRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Bed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Bed, 0)
	for _, b := range r.beds {
		if b.HospitalID == hospitalID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BedNumber < out[j].BedNumber })
	return out, nil
}

func (r *bedRepository) Update(ctx context.Context, bed *model.Bed, expected model.BedStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.beds[bed.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != expected {
		return repository.ErrStateChanged
	}
	bed.CreatedAt = current.CreatedAt
	r.stamp(&bed.Base)
	r.beds[bed.ID] = bed.Clone()
	return nil
}

func (r *bedRepository) Delete(ctx context.Context, id uuid.UUID, expected model.BedStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.beds[id]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status != expected {
		return repository.ErrStateChanged
	}
	delete(r.beds, id)
	return nil
}

func (r *bedRepository) CountByHospital(ctx context.Context, hospitalID uuid.UUID, statuses ...model.BedStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, b := range r.beds {
		if b.HospitalID != hospitalID {
			continue
		}
		if len(statuses) > 0 && !bedStatusIn(b.Status, statuses) {
			continue
		}
		n++
	}
	return n, nil
}

func bedStatusIn(s model.BedStatus, statuses []model.BedStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type ambulanceRepository struct{ *state }

// checkUnique enforces the vehicle number and driver unique indexes.
func (r *ambulanceRepository) checkUnique(a *model.Ambulance) error {
	for id, other := range r.ambulances {
		if id == a.ID {
			continue
		}
		if other.VehicleNumber == a.VehicleNumber || sameID(other.DriverID, a.DriverID) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *model.Ambulance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUnique(ambulance); err != nil {
		return err
	}
	r.stamp(&ambulance.Base)
	r.ambulances[ambulance.ID] = ambulance.Clone()
	return nil
}

func (r *ambulanceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.ambulances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *ambulanceRepository) find(match func(*model.Ambulance) bool) (*model.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.ambulances {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ambulanceRepository) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*model.Ambulance, error) {
	return r.find(func(a *model.Ambulance) bool { return a.VehicleNumber == vehicleNumber })
}

func (r *ambulanceRepository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*model.Ambulance, error) {
	return r.find(func(a *model.Ambulance) bool { return sameID(a.DriverID, &driverID) })
}

func (r *ambulanceRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Ambulance, 0)
	for _, a := range r.ambulances {
		if sameID(a.HospitalID, &hospitalID) {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleNumber < out[j].VehicleNumber })
	return out, nil
}

func (r *ambulanceRepository) Update(ctx context.Context, ambulance *model.Ambulance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.ambulances[ambulance.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(ambulance); err != nil {
		return err
	}
	ambulance.CreatedAt = current.CreatedAt
	r.stamp(&ambulance.Base)
	r.ambulances[ambulance.ID] = ambulance.Clone()
	return nil
}

func (r *ambulanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ambulances[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.ambulances, id)
	return nil
}

func (r *ambulanceRepository) CountInService(ctx context.Context, hospitalID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, a := range r.ambulances {
		if sameID(a.HospitalID, &hospitalID) && a.Status != model.AmbulanceStatusMaintenance {
			n++
		}
	}
	return n, nil
}

type workHourRepository struct{ *state }

func (r *workHourRepository) Create(ctx context.Context, workHour *model.WorkHour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[workHour.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, w := range r.workHours {
		if w.UserID == workHour.UserID && w.WorkDate.Equal(workHour.WorkDate) {
			return repository.ErrDuplicate
		}
	}
	if workHour.ID == uuid.Nil {
		workHour.ID = uuid.New()
	}
	workHour.CreatedAt = r.now()
	r.workHours[workHour.ID] = workHour.Clone()
	return nil
}

func (r *workHourRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date model.Date) (*model.WorkHour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.workHours {
		if w.UserID == userID && w.WorkDate.Equal(date) {
			return w.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *workHourRepository) ListByUserInRange(ctx context.Context, userID uuid.UUID, start, end model.Date) ([]*model.WorkHour, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.WorkHour, 0)
	for _, w := range r.workHours {
		if w.UserID != userID || w.WorkDate.Before(start) || w.WorkDate.After(end) {
			continue
		}
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}
