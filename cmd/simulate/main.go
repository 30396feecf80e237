package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/config"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/logging"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type SimConfig struct {
	APIBaseURL   string
	Tenant       string
	Email        string
	Password     string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	ReadRatio    float64
	DoctorLimit  int
	PatientLimit int
}

// DataPool holds the ids the workers draw from.
type DataPool struct {
	Doctors  []uuid.UUID
	Patients []uuid.UUID
	Date     schedule.Date
	Times    []schedule.Clock

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	token   string
	logger  zerolog.Logger
	metrics Metrics
}

func main() {
	base, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New("simulate", base.Env, base.LogLevel)

	cfg := loadConfig(base)
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("status", cfg.StatusRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, base.PostgresDSN, base.DBMaxConns, base.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}
	logger.Info().
		Int("doctors", len(dataPool.Doctors)).
		Int("patients", len(dataPool.Patients)).
		Str("date", dataPool.Date.String()).
		Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
	if err := sim.login(ctx); err != nil {
		logger.Fatal().Err(err).Msg("login")
	}

	sim.Run()
	sim.PrintReport()

	overlaps, err := countOverlaps(context.Background(), pgPool, cfg.Tenant, dataPool.Date)
	if err != nil {
		logger.Fatal().Err(err).Msg("overlap check")
	}
	fmt.Printf("Double bookings on %s: %d\n", dataPool.Date, overlaps)
	if overlaps > 0 {
		os.Exit(1)
	}
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:"+base.HTTPPort),
		Tenant:       getEnv("SIM_TENANT", base.DefaultTenant),
		Email:        os.Getenv("SIM_EMAIL"),
		Password:     os.Getenv("SIM_PASSWORD"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 20),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.6),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 5),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 2000),
	}

	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return errors.New("SIM_EMAIL and SIM_PASSWORD are required")
	}
	if !db.ValidTenantID(cfg.Tenant) {
		return fmt.Errorf("invalid SIM_TENANT %q", cfg.Tenant)
	}
	if cfg.Workers <= 0 {
		return errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return errors.New("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool picks active doctors and patients and targets the next weekday,
// so every worker competes for the same few schedules.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	ctx, release, err := db.AcquireTenant(ctx, pool, cfg.Tenant)
	if err != nil {
		return nil, err
	}
	defer release()
	q := db.Querier(ctx, pool)

	dp := &DataPool{}
	if dp.Doctors, err = loadIDs(ctx, q, `SELECT id FROM doctors WHERE record_status = 'active' LIMIT $1`, cfg.DoctorLimit); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	if dp.Patients, err = loadIDs(ctx, q, `SELECT id FROM patients WHERE record_status = 'active' LIMIT $1`, cfg.PatientLimit); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	if len(dp.Doctors) == 0 {
		return nil, errors.New("no doctors loaded")
	}
	if len(dp.Patients) == 0 {
		return nil, errors.New("no patients loaded")
	}

	dp.Date = schedule.DateOf(time.Now()).AddDays(1)
	for dp.Date.Weekday() == time.Saturday || dp.Date.Weekday() == time.Sunday {
		dp.Date = dp.Date.AddDays(1)
	}
	for t := schedule.At(9, 0); t < schedule.At(17, 0); t = t.Add(15) {
		dp.Times = append(dp.Times, t)
	}
	return dp, nil
}

func loadIDs(ctx context.Context, q db.DBTX, sql string, limit int) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// countOverlaps counts pairs of live appointments of one doctor whose times
// intersect on date.
func countOverlaps(ctx context.Context, pool *pgxpool.Pool, tenant string, date schedule.Date) (int, error) {
	ctx, release, err := db.AcquireTenant(ctx, pool, tenant)
	if err != nil {
		return 0, err
	}
	defer release()

	var n int
	err = db.Querier(ctx, pool).QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.doctor_id = b.doctor_id
		 AND a.id < b.id
		 AND a.slot && b.slot
		WHERE a.appointment_date = $1
		  AND a.status IN ('scheduled', 'confirmed', 'in_progress')
		  AND b.status IN ('scheduled', 'confirmed', 'in_progress')
	`, date.Time()).Scan(&n)
	return n, err
}

func (s *Simulator) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"email": s.config.Email, "password": s.config.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(db.TenantHeader, s.config.Tenant)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned %s", resp.Status)
	}
	var out struct {
		Token string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	s.token = out.Token
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.StatusRatio:
			s.doStatus(ctx, rng)
		default:
			switch rng.Intn(3) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doListByPatient(ctx, rng)
			case 2:
				s.doSlots(ctx, rng)
			}
		}
	}
}

// call sends one request and returns the status code, decoding a 2xx body into out.
func (s *Simulator) call(ctx context.Context, method, path string, in, out any) (int, error) {
	var body *bytes.Reader
	if in != nil {
		b, _ := json.Marshal(in)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+"/api/v1"+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	p := s.pool
	in := map[string]any{
		"patient_id":       p.Patients[rng.Intn(len(p.Patients))],
		"doctor_id":        p.Doctors[rng.Intn(len(p.Doctors))],
		"appointment_date": p.Date,
		"appointment_time": p.Times[rng.Intn(len(p.Times))],
		"duration_minutes": 30,
		"reason":           "load test",
	}

	start := time.Now()
	var out struct {
		ID uuid.UUID `json:"id"`
	}
	code, err := s.call(ctx, http.MethodPost, "/appointments", in, &out)
	if err == nil && code == http.StatusCreated {
		p.AddAppointment(out.ID)
	}
	s.metrics.Booking.Record(time.Since(start), outcomeOf(code, err, http.StatusCreated))
}

func (s *Simulator) doStatus(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	status := "confirmed"
	if rng.Intn(4) == 0 {
		status = "cancelled"
	}

	start := time.Now()
	code, err := s.call(ctx, http.MethodPost, "/appointments/"+id.String()+"/status",
		map[string]string{"status": status, "cancellation_reason": "simulated"}, nil)
	s.metrics.Status.Record(time.Since(start), outcomeOf(code, err, http.StatusOK))
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	start := time.Now()
	code, err := s.call(ctx, http.MethodGet, "/appointments/"+id.String(), nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), outcomeOf(code, err, http.StatusOK))
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patientID := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	start := time.Now()
	code, err := s.call(ctx, http.MethodGet, "/appointments?limit=20&patient_id="+patientID.String(), nil, nil)
	s.metrics.ListByPatient.Record(time.Since(start), outcomeOf(code, err, http.StatusOK))
}

func (s *Simulator) doSlots(ctx context.Context, rng *rand.Rand) {
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	start := time.Now()
	code, err := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/doctors/%s/slots?date=%s", doctorID, s.pool.Date), nil, nil)
	s.metrics.Slots.Record(time.Since(start), outcomeOf(code, err, http.StatusOK))
}

func outcomeOf(code int, err error, want int) outcome {
	switch {
	case err == nil && code == want:
		return outcomeSuccess
	case err == nil && (code == http.StatusConflict || code == http.StatusUnprocessableEntity):
		return outcomeConflict
	}
	return outcomeError
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Appointments created: %d\n\n", len(s.pool.appointments))

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status change", &s.metrics.Status)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by patient", &s.metrics.ListByPatient)
	printOperationReport("Available slots", &s.metrics.Slots)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
