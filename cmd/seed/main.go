package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/pflag"

	"github.com/jwalitptl/hospital-ops/internal/app"
	"github.com/jwalitptl/hospital-ops/internal/config"
	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

var bedTypes = []model.BedType{
	model.BedTypeICU,
	model.BedTypeGeneral,
	model.BedTypeEmergency,
	model.BedTypePediatric,
	model.BedTypeMaternity,
}

type options struct {
	beds       int
	doctors    int
	nurses     int
	drivers    int
	password   string
	adminEmail string
}

func main() {
	var opts options
	pflag.IntVar(&opts.beds, "beds", 20, "number of beds to create")
	pflag.IntVar(&opts.doctors, "doctors", 4, "number of doctors to create")
	pflag.IntVar(&opts.nurses, "nurses", 6, "number of nurses to create")
	pflag.IntVar(&opts.drivers, "drivers", 3, "number of ambulance drivers, each with an ambulance")
	pflag.StringVar(&opts.password, "password", "password123", "password for every seeded account")
	pflag.StringVar(&opts.adminEmail, "admin-email", "admin@hospital.local", "email of the hospital admin")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := app.NewLogger(cfg.Log).WithFields(map[string]interface{}{"process": "seed"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize application")
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Error(err, "Failed to release resources")
		}
	}()

	_ = gofakeit.Seed(time.Now().UnixNano())

	if err := seed(ctx, a, opts, log); err != nil {
		log.Error(err, "Seed failed")
		return
	}
	log.Info("Seed complete", "admin_email", opts.adminEmail)
}

func seed(ctx context.Context, a *app.App, opts options, log *logger.Logger) error {
	actor := model.SystemPrincipal

	lat, lng := gofakeit.Latitude(), gofakeit.Longitude()
	hospital, err := a.Hospitals.Create(ctx, actor, model.CreateHospitalRequest{
		Name:      gofakeit.LastName() + " General Hospital",
		Address:   gofakeit.Street() + ", " + gofakeit.City(),
		Phone:     gofakeit.Phone(),
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		return fmt.Errorf("create hospital: %w", err)
	}
	log.Info("Hospital created", "hospital_id", hospital.ID.String(), "name", hospital.Name)

	if _, err := createUser(ctx, a, hospital, model.RoleHospitalAdmin, opts.adminEmail, opts.password); err != nil {
		return err
	}

	counts := []struct {
		role model.Role
		n    int
	}{
		{model.RoleDoctor, opts.doctors},
		{model.RoleNurse, opts.nurses},
	}
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			if _, err := createUser(ctx, a, hospital, c.role, "", opts.password); err != nil {
				return err
			}
		}
	}

	for i := 0; i < opts.drivers; i++ {
		driver, err := createUser(ctx, a, hospital, model.RoleAmbulanceDriver, "", opts.password)
		if err != nil {
			return err
		}
		_, err = a.Ambulances.Create(ctx, actor, model.CreateAmbulanceRequest{
			VehicleNumber: strings.ToUpper(gofakeit.Regex("[A-Z]{2}-[0-9]{4}")),
			DriverID:      &driver.ID,
			HospitalID:    hospital.ID,
		})
		if err != nil {
			return fmt.Errorf("create ambulance: %w", err)
		}
	}

	for i := 0; i < opts.beds; i++ {
		_, err := a.Beds.Create(ctx, actor, model.CreateBedRequest{
			BedNumber:  fmt.Sprintf("%s-%03d", hospital.ID.String()[:4], i+1),
			BedType:    bedTypes[gofakeit.Number(0, len(bedTypes)-1)],
			HospitalID: hospital.ID,
		})
		if err != nil {
			return fmt.Errorf("create bed: %w", err)
		}
	}

	if _, err := a.Hospitals.SyncCounters(ctx); err != nil {
		return fmt.Errorf("sync counters: %w", err)
	}
	return nil
}

func createUser(ctx context.Context, a *app.App, hospital *model.Hospital, role model.Role, email, password string) (*model.User, error) {
	if email == "" {
		email = gofakeit.Email()
	}
	user, err := a.Users.Create(ctx, model.SystemPrincipal, model.CreateUserRequest{
		Name:       gofakeit.Name(),
		Email:      email,
		Password:   password,
		Role:       role,
		HospitalID: &hospital.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", strings.ToLower(string(role)), err)
	}
	return user, nil
}
