package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/app"
	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/config"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/logging"
	"github.com/hackgods/clinicdesk/internal/medicine"
	"github.com/hackgods/clinicdesk/internal/patient"
	redisclient "github.com/hackgods/clinicdesk/internal/redis"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

var specialties = []string{
	"General Practice",
	"Dentistry",
	"Pediatrics",
	"Dermatology",
	"Cardiology",
	"Orthopedics",
	"ENT",
	"Ophthalmology",
}

var reasons = []string{"Routine checkup", "Follow-up visit", "Fever and cough", "Tooth pain", "Scaling and cleaning", "Skin rash"}

var dependents = []patient.Relationship{
	patient.RelSpouse,
	patient.RelChild,
	patient.RelChild,
	patient.RelParent,
	patient.RelSibling,
}

func main() {
	tenant := flag.String("tenant", "", "tenant to seed (defaults to DEFAULT_TENANT)")
	doctors := flag.Int("doctors", 10, "doctors to create")
	families := flag.Int("families", 200, "families to create")
	bookings := flag.Int("appointments", 100, "appointments to book on the next weekday")
	seed := flag.Int64("seed", 0, "random seed (0 = time based)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New("seed", cfg.Env, cfg.LogLevel)
	if *tenant == "" {
		*tenant = cfg.DefaultTenant
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(uint64(*seed))

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pool.Close()

	rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer rdb.Close()

	ctx, release, err := db.AcquireTenant(ctx, pool, *tenant)
	if err != nil {
		logger.Fatal().Err(err).Msg("tenant scope")
	}
	defer release()

	svc := app.New(pool, app.Options{
		Tokens:        auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Locker:        redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL),
		FamilyMaxSize: cfg.FamilyMaxSize,
		Logger:        logger,
	})
	s := &seeder{svc: svc, faker: faker, logger: logger.With().Str("tenant_id", *tenant).Logger()}

	docs, err := s.doctors(ctx, *doctors)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	pats, err := s.families(ctx, *families)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := s.catalog(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	if err := s.appointments(ctx, docs, pats, *bookings); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}
	s.logger.Info().Int64("seed", *seed).Msg("seed complete")
}

type seeder struct {
	svc    *app.Services
	faker  *gofakeit.Faker
	logger zerolog.Logger
}

func weekdaySchedule() schedule.WeeklySchedule {
	sched := schedule.WeeklySchedule{}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		sched[wd] = []schedule.Window{
			{Start: schedule.At(9, 0), End: schedule.At(13, 0)},
			{Start: schedule.At(14, 0), End: schedule.At(18, 0)},
		}
	}
	sched[time.Saturday] = []schedule.Window{{Start: schedule.At(9, 0), End: schedule.At(12, 0)}}
	return sched
}

func (s *seeder) doctors(ctx context.Context, count int) ([]*doctor.Doctor, error) {
	out := make([]*doctor.Doctor, 0, count)
	for i := 0; i < count; i++ {
		u, err := s.svc.Auth.CreateUser(ctx, auth.CreateUserInput{
			Email:    s.faker.Email(),
			Password: s.faker.Password(true, true, true, false, false, 14),
			FullName: "Dr. " + s.faker.Name(),
			Role:     auth.RoleDoctor,
		})
		if err != nil {
			return nil, err
		}
		d, err := s.svc.Doctors.Create(ctx, doctor.CreateInput{
			UserID:          u.ID,
			LicenseNumber:   s.faker.Numerify("LIC-######"),
			Specialization:  specialties[s.faker.Number(0, len(specialties)-1)],
			Qualification:   "MBBS",
			ConsultationFee: float64(s.faker.Number(3, 20) * 100),
			Schedule:        weekdaySchedule(),
			Offices:         []doctor.Office{{ID: "main", Name: "Main clinic", Address: s.faker.Street()}},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	s.logger.Info().Int("count", len(out)).Msg("doctors seeded")
	return out, nil
}

func (s *seeder) mobile() string {
	return s.faker.Numerify("9#########")
}

func (s *seeder) families(ctx context.Context, count int) ([]*patient.Patient, error) {
	var out []*patient.Patient
	for i := 0; i < count; i++ {
		mobile := s.mobile()
		self, err := s.svc.Patients.Create(ctx, patient.CreateInput{
			MobileNumber: mobile,
			FirstName:    s.faker.FirstName(),
			LastName:     s.faker.LastName(),
			DateOfBirth:  schedule.DateOf(s.faker.DateRange(time.Now().AddDate(-70, 0, 0), time.Now().AddDate(-20, 0, 0))),
			Gender:       s.faker.Gender(),
			Relationship: patient.RelSelf,
			Email:        s.faker.Email(),
			Address:      s.faker.Street(),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, self)

		seen := map[string]bool{self.FirstName: true}
		for j := s.faker.Number(0, 3); j > 0; j-- {
			first := s.faker.FirstName()
			if seen[first] {
				continue
			}
			seen[first] = true
			member, err := s.svc.Patients.Create(ctx, patient.CreateInput{
				MobileNumber:         mobile,
				FirstName:            first,
				LastName:             self.LastName,
				Gender:               s.faker.Gender(),
				Relationship:         dependents[s.faker.Number(0, len(dependents)-1)],
				PrimaryContactMobile: mobile,
			})
			if err != nil {
				return nil, fmt.Errorf("family %s: %w", mobile, err)
			}
			out = append(out, member)
		}
	}
	s.logger.Info().Int("families", count).Int("patients", len(out)).Msg("patients seeded")
	return out, nil
}

var formulary = []medicine.CreateInput{
	{Name: "Paracetamol", GenericName: "acetaminophen", Form: medicine.FormTablet, Strength: "500mg"},
	{Name: "Amoxicillin", GenericName: "amoxicillin", Form: medicine.FormCapsule, Strength: "500mg"},
	{Name: "Ibuprofen", GenericName: "ibuprofen", Form: medicine.FormTablet, Strength: "400mg"},
	{Name: "Cetirizine", GenericName: "cetirizine", Form: medicine.FormTablet, Strength: "10mg"},
	{Name: "Chlorhexidine Mouthwash", GenericName: "chlorhexidine", Form: medicine.FormOther, Strength: "0.2%"},
	{Name: "Salbutamol", GenericName: "albuterol", Form: medicine.FormInhaler, Strength: "100mcg"},
}

func (s *seeder) catalog(ctx context.Context) error {
	ids := make(map[string]uuid.UUID, len(formulary))
	for _, in := range formulary {
		in.Manufacturer = s.faker.Company()
		m, err := s.svc.Medicines.Create(ctx, in)
		if err != nil {
			return err
		}
		ids[m.Name] = m.ID
	}

	keys := []medicine.ShortKeyInput{
		{
			Code: "FEVER", Name: "Fever, adult",
			Items: []medicine.ItemInput{
				{MedicineID: ids["Paracetamol"], Dosage: "1 tablet", Frequency: "every 6 hours", Duration: "3 days", Quantity: 12},
			},
		},
		{
			Code: "DENTAL-EXT", Name: "After extraction",
			Items: []medicine.ItemInput{
				{MedicineID: ids["Amoxicillin"], Dosage: "1 capsule", Frequency: "3 times a day", Duration: "5 days", Quantity: 15},
				{MedicineID: ids["Ibuprofen"], Dosage: "1 tablet", Frequency: "twice a day", Duration: "3 days", Instructions: "after food", Quantity: 6},
				{MedicineID: ids["Chlorhexidine Mouthwash"], Dosage: "10ml", Frequency: "twice a day", Duration: "7 days", Quantity: 1},
			},
		},
	}
	for _, in := range keys {
		if _, err := s.svc.Medicines.CreateShortKey(ctx, in); err != nil {
			return err
		}
	}
	s.logger.Info().Int("medicines", len(formulary)).Int("short_keys", len(keys)).Msg("catalog seeded")
	return nil
}

// appointments books count visits on the next weekday, picking free slots from
// the availability engine.
func (s *seeder) appointments(ctx context.Context, docs []*doctor.Doctor, pats []*patient.Patient, count int) error {
	if len(docs) == 0 || len(pats) == 0 {
		return nil
	}
	day := schedule.DateOf(time.Now()).AddDays(1)
	for day.Weekday() == time.Sunday || day.Weekday() == time.Saturday {
		day = day.AddDays(1)
	}

	booked := 0
	for _, d := range docs {
		slots, err := s.svc.Appointments.AvailableSlots(ctx, d.ID, day, appointment.DefaultSlotMinutes)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if booked == count {
				break
			}
			if !slot.Available || s.faker.Bool() {
				continue
			}
			p := pats[s.faker.Number(0, len(pats)-1)]
			if _, err := s.svc.Appointments.Create(ctx, appointment.CreateInput{
				PatientID:       p.ID,
				DoctorID:        d.ID,
				Date:            day,
				Time:            slot.Start,
				DurationMinutes: appointment.DefaultSlotMinutes,
				OfficeID:        "main",
				Reason:          reasons[s.faker.Number(0, len(reasons)-1)],
			}); err != nil {
				return err
			}
			booked++
		}
	}
	s.logger.Info().Int("count", booked).Str("date", day.String()).Msg("appointments seeded")
	return nil
}
