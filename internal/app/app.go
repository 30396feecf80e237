// Package app assembles the domain services over one database handle.
package app

import (
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/dental"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/medicine"
	"github.com/hackgods/clinicdesk/internal/patient"
	"github.com/hackgods/clinicdesk/internal/prescription"
	redisclient "github.com/hackgods/clinicdesk/internal/redis"
)

type Options struct {
	Tokens        *auth.Tokens
	Locker        redisclient.Locker
	FamilyMaxSize int
	Logger        zerolog.Logger
}

type Services struct {
	Auth          *auth.Service
	Patients      *patient.Service
	Doctors       *doctor.Service
	Appointments  *appointment.Service
	Medicines     *medicine.Service
	Prescriptions *prescription.Service
	Dental        *dental.Service
}

// New wires every service to pool. Repositories resolve the tenant-scoped
// connection or open transaction from the request context first.
func New(pool db.DBTX, opts Options) *Services {
	tx := db.NewTransactor(pool)
	rec := events.NewPgRecorder(pool)

	authSvc := auth.NewService(auth.NewPgRepository(pool), opts.Tokens)
	patients := patient.NewService(patient.NewPgRepository(pool), tx, rec, opts.FamilyMaxSize)
	doctors := doctor.NewService(doctor.NewPgRepository(pool), authSvc, tx, rec)
	appointments := appointment.NewService(
		appointment.NewPgRepository(pool), patients, doctors, opts.Locker, tx, rec, opts.Logger,
	)
	medicines := medicine.NewService(medicine.NewPgRepository(pool), medicine.NewPgShortKeyRepository(pool), tx, rec)
	prescriptions := prescription.NewService(
		prescription.NewPgRepository(pool), patients, doctors, appointments, medicines, tx, rec,
	)
	dentalSvc := dental.NewService(dental.NewPgRepository(pool), patients, doctors, appointments, tx, rec)

	return &Services{
		Auth:          authSvc,
		Patients:      patients,
		Doctors:       doctors,
		Appointments:  appointments,
		Medicines:     medicines,
		Prescriptions: prescriptions,
		Dental:        dentalSvc,
	}
}
