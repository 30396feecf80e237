package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type PgRepository struct {
	pool db.DBTX
}

func NewPgRepository(pool db.DBTX) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, appointment_number, patient_id, patient_mobile, patient_first_name,
	doctor_id, appointment_date, appointment_time, duration_minutes, status,
	office_id, reason, notes, cancellation_reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.PatientID,
		&a.PatientMobile,
		&a.PatientFirstName,
		&a.DoctorID,
		&a.Date,
		&a.Time,
		&a.DurationMinutes,
		&a.Status,
		&a.OfficeID,
		&a.Reason,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	out := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// mapWriteErr turns constraint violations into the matching domain error.
func mapWriteErr(err error) error {
	switch {
	case db.IsExclusionViolation(err):
		return ErrSlotTaken
	case db.IsUniqueViolation(err, "appointments_number_key"):
		return ErrNumberCollision
	}
	return err
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointments (
			id, appointment_number, patient_id, patient_mobile, patient_first_name,
			doctor_id, appointment_date, appointment_time, duration_minutes, status,
			office_id, reason, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		a.ID, a.Number, a.PatientID, a.PatientMobile, a.PatientFirstName,
		a.DoctorID, a.Date, a.Time, a.DurationMinutes, string(a.Status),
		a.OfficeID, a.Reason, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", mapWriteErr(err))
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetByNumber(ctx context.Context, number string) (*Appointment, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_number = $1`, number)
	return scanAppointment(row)
}

func (r *PgRepository) AppointmentsFor(ctx context.Context, doctorID uuid.UUID, date schedule.Date, statuses []Status, excludeID uuid.UUID) ([]Appointment, error) {
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status = ANY($3)
		  AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY appointment_time, created_at
	`, doctorID, date, statusStrings(statuses), nullableID(excludeID))
	if err != nil {
		return nil, fmt.Errorf("query doctor bookings: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.DoctorID != uuid.Nil {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.PatientID != uuid.Nil {
		add("patient_id = $%d", f.PatientID)
	}
	if !f.DateFrom.IsZero() {
		add("appointment_date >= $%d", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("appointment_date <= $%d", f.DateTo)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	q := db.Querier(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset)
	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments%s
		ORDER BY appointment_date, appointment_time, created_at
		LIMIT $%d OFFSET $%d
	`, appointmentColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	out, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancellationReason string) (*Appointment, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
		    cancellation_reason = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancellation_reason END,
		    updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING `+appointmentColumns,
		id, string(from), string(to), cancellationReason, time.Now(),
	)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", mapWriteErr(err))
	}
	return a, nil
}

func (r *PgRepository) Reschedule(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.Clock, durationMinutes int, officeID string) (*Appointment, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3, duration_minutes = $4,
		    office_id = $5, updated_at = $6
		WHERE id = $1 AND status IN ('scheduled', 'confirmed')
		RETURNING `+appointmentColumns,
		id, date, start, durationMinutes, officeID, time.Now(),
	)
	a, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("reschedule appointment: %w", mapWriteErr(err))
	}
	return a, nil
}

func (r *PgRepository) UpdateDetails(ctx context.Context, id uuid.UUID, reason, notes string) (*Appointment, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments SET reason = $2, notes = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, reason, notes, time.Now(),
	)
	return scanAppointment(row)
}

func (r *PgRepository) DailyCounts(ctx context.Context, from, to schedule.Date, doctorID uuid.UUID) ([]DailyCount, error) {
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT appointment_date, doctor_id, status, count(*)
		FROM appointments
		WHERE appointment_date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR doctor_id = $3)
		GROUP BY appointment_date, doctor_id, status
		ORDER BY appointment_date, doctor_id, status
	`, from, to, nullableID(doctorID))
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Date, &c.DoctorID, &c.Status, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
