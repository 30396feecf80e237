package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/auth"
)

type RouterConfig struct {
	Logger zerolog.Logger
	Tokens *auth.Tokens
	// Tenancy resolves the tenant of a request and scopes its database work.
	Tenancy      func(http.Handler) http.Handler
	LoginLimiter LoginLimiter

	Auth          AuthService
	Patients      PatientService
	Doctors       DoctorService
	Appointments  AppointmentService
	Prescriptions PrescriptionService
	Medicines     MedicineService
	Dental        DentalService

	PostgresPing Pinger
	RedisPing    Pinger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)

	health := NewHealthHandler(cfg.PostgresPing, cfg.RedisPing, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	tenancy := cfg.Tenancy
	if tenancy == nil {
		tenancy = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(tenancy).Post("/auth/login", loginHandler(cfg.Auth, cfg.LoginLimiter))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Tokens))
			r.Use(tenancy)

			r.Get("/auth/me", meHandler(cfg.Auth))
			r.With(can(auth.ActionWrite, auth.ResourceUser)).Post("/users", createUserHandler(cfg.Auth))

			mountPatients(r, cfg.Patients, cfg.Prescriptions)
			mountDoctors(r, cfg.Doctors, cfg.Appointments)
			mountAppointments(r, cfg.Appointments)
			mountPrescriptions(r, cfg.Prescriptions)
			mountCatalog(r, cfg.Medicines)
			mountDental(r, cfg.Dental)
		})
	})

	return r
}

func can(action auth.Action, resource auth.Resource) func(http.Handler) http.Handler {
	return auth.Authorize(action, resource)
}

func mountPatients(r chi.Router, svc PatientService, rx PrescriptionService) {
	read := r.With(can(auth.ActionRead, auth.ResourcePatient))
	write := r.With(can(auth.ActionWrite, auth.ResourcePatient))

	write.Post("/patients", createPatientHandler(svc))
	read.Get("/patients", searchPatientsHandler(svc))
	read.Get("/patients/by-key", getPatientByKeyHandler(svc))
	read.Get("/patients/{id}", getPatientHandler(svc))
	write.Patch("/patients/{id}", updatePatientHandler(svc))
	write.Post("/patients/{id}/deactivate", deactivatePatientHandler(svc))
	write.Post("/patients/{id}/restore", restorePatientHandler(svc))

	read.Get("/families/{mobile}", familyHandler(svc))
	read.Get("/families/{mobile}/eligibility", eligibilityHandler(svc))
	read.Post("/families/validate-member", validateMemberHandler(svc))

	r.With(can(auth.ActionRead, auth.ResourcePrescription)).
		Get("/patients/{id}/prescriptions", patientPrescriptionsHandler(rx))
}

func mountDoctors(r chi.Router, svc DoctorService, appts AppointmentService) {
	read := r.With(can(auth.ActionRead, auth.ResourceDoctor))
	write := r.With(can(auth.ActionWrite, auth.ResourceDoctor))
	schedule := r.With(can(auth.ActionWrite, auth.ResourceSchedule))
	slots := r.With(can(auth.ActionRead, auth.ResourceSchedule))

	write.Post("/doctors", createDoctorHandler(svc))
	read.Get("/doctors", listDoctorsHandler(svc))
	read.Get("/doctors/{id}", getDoctorHandler(svc))
	write.Patch("/doctors/{id}", updateDoctorHandler(svc))
	write.Post("/doctors/{id}/deactivate", deactivateDoctorHandler(svc))
	write.Post("/doctors/{id}/restore", restoreDoctorHandler(svc))
	schedule.Put("/doctors/{id}/schedule", setScheduleHandler(svc))
	schedule.Put("/doctors/{id}/offices", setOfficesHandler(svc))
	slots.Get("/doctors/{id}/slots", availableSlotsHandler(appts))
	slots.Get("/doctors/{id}/suggestions", suggestedTimesHandler(appts))
}

func mountAppointments(r chi.Router, svc AppointmentService) {
	read := r.With(can(auth.ActionRead, auth.ResourceAppointment))
	write := r.With(can(auth.ActionWrite, auth.ResourceAppointment))

	write.Post("/appointments", createAppointmentHandler(svc))
	read.Get("/appointments", listAppointmentsHandler(svc))
	read.Get("/appointments/by-number/{number}", getAppointmentByNumberHandler(svc))
	read.Post("/appointments/check-conflict", checkConflictHandler(svc))
	write.Post("/appointments/bulk-status", bulkStatusHandler(svc))
	read.Get("/appointments/{id}", getAppointmentHandler(svc))
	write.Patch("/appointments/{id}", updateAppointmentHandler(svc))
	write.Post("/appointments/{id}/status", appointmentStatusHandler(svc))
	write.Post("/appointments/{id}/reschedule", rescheduleHandler(svc))
	write.Post("/appointments/{id}/cancel", cancelAppointmentHandler(svc))

	r.With(can(auth.ActionRead, auth.ResourceReport)).
		Get("/reports/appointments/daily", dailySummaryHandler(svc))
}

func mountPrescriptions(r chi.Router, svc PrescriptionService) {
	read := r.With(can(auth.ActionRead, auth.ResourcePrescription))
	write := r.With(can(auth.ActionWrite, auth.ResourcePrescription))

	write.Post("/prescriptions", createPrescriptionHandler(svc))
	read.Get("/prescriptions", listPrescriptionsHandler(svc))
	read.Get("/prescriptions/{id}", getPrescriptionHandler(svc))
	write.Patch("/prescriptions/{id}", updatePrescriptionHandler(svc))
	write.Post("/prescriptions/{id}/items", addPrescriptionItemHandler(svc))
	write.Delete("/prescriptions/{id}/items/{itemID}", removePrescriptionItemHandler(svc))
	write.Post("/prescriptions/{id}/apply-short-key", applyShortKeyHandler(svc))
	write.Post("/prescriptions/{id}/status", prescriptionStatusHandler(svc))
}

func mountCatalog(r chi.Router, svc MedicineService) {
	read := r.With(can(auth.ActionRead, auth.ResourceMedicine))
	write := r.With(can(auth.ActionWrite, auth.ResourceMedicine))

	write.Post("/medicines", createMedicineHandler(svc))
	read.Get("/medicines", searchMedicinesHandler(svc))
	read.Get("/medicines/{id}", getMedicineHandler(svc))
	write.Patch("/medicines/{id}", updateMedicineHandler(svc))
	write.Post("/medicines/{id}/deactivate", deactivateMedicineHandler(svc))
	write.Post("/medicines/{id}/restore", restoreMedicineHandler(svc))

	keysRead := r.With(can(auth.ActionRead, auth.ResourceShortKey))
	keysWrite := r.With(can(auth.ActionWrite, auth.ResourceShortKey))

	keysWrite.Post("/short-keys", createShortKeyHandler(svc))
	keysRead.Get("/short-keys", listShortKeysHandler(svc))
	keysRead.Get("/short-keys/by-code/{code}", getShortKeyByCodeHandler(svc))
	keysRead.Get("/short-keys/{id}", getShortKeyHandler(svc))
	keysWrite.Patch("/short-keys/{id}", updateShortKeyHandler(svc))
	keysWrite.Delete("/short-keys/{id}", deactivateShortKeyHandler(svc))
	keysRead.Get("/short-keys/{code}/expand", expandShortKeyHandler(svc))
}

func mountDental(r chi.Router, svc DentalService) {
	read := r.With(can(auth.ActionRead, auth.ResourceDental))
	write := r.With(can(auth.ActionWrite, auth.ResourceDental))

	write.Post("/patients/{id}/dental/observations", recordObservationHandler(svc))
	read.Get("/patients/{id}/dental/observations", listObservationsHandler(svc))
	write.Post("/patients/{id}/dental/procedures", planProcedureHandler(svc))
	read.Get("/patients/{id}/dental/procedures", listProceduresHandler(svc))
	read.Get("/patients/{id}/dental/chart", dentalChartHandler(svc))
	write.Post("/dental/procedures/{id}/status", procedureStatusHandler(svc))
}
