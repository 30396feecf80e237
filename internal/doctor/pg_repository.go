package doctor

import (
	"context"
	"fmt"
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

const doctorSelect = `
	SELECT d.id, d.user_id, u.full_name, d.license_number, d.specialization,
	       d.qualification, d.consultation_fee, d.availability_schedule, d.offices,
	       d.record_status, d.archived_at, d.created_at, d.updated_at
	FROM doctors d
	JOIN users u ON u.id = d.user_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FullName,
		&d.LicenseNumber,
		&d.Specialization,
		&d.Qualification,
		&d.ConsultationFee,
		&d.Schedule,
		&d.Offices,
		&d.RecordStatus,
		&d.ArchivedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if d.Schedule == nil {
		d.Schedule = schedule.WeeklySchedule{}
	}
	if d.Offices == nil {
		d.Offices = []Office{}
	}
	return &d, nil
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err, "doctors_license_number_key"):
		return ErrLicenseTaken
	case db.IsUniqueViolation(err, "doctors_user_id_key"):
		return ErrUserIsDoctor
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) error {
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO doctors (
			id, user_id, license_number, specialization, qualification, consultation_fee,
			availability_schedule, offices, record_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		d.ID, d.UserID, d.LicenseNumber, d.Specialization, d.Qualification, d.ConsultationFee,
		d.Schedule, d.Offices, d.RecordStatus, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", mapWriteErr(err))
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, d *Doctor) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE doctors
		SET specialization = $2, qualification = $3, consultation_fee = $4, updated_at = $5
		WHERE id = $1
	`, d.ID, d.Specialization, d.Qualification, d.ConsultationFee, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) SetSchedule(ctx context.Context, id uuid.UUID, s schedule.WeeklySchedule) error {
	return r.exec(ctx, `UPDATE doctors SET availability_schedule = $2, updated_at = now() WHERE id = $1`, id, s)
}

func (r *PgRepository) SetOffices(ctx context.Context, id uuid.UUID, offices []Office) error {
	return r.exec(ctx, `UPDATE doctors SET offices = $2, updated_at = now() WHERE id = $1`, id, offices)
}

func (r *PgRepository) SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error {
	var archivedAt *time.Time
	if status == db.RecordArchived {
		now := time.Now()
		archivedAt = &now
	}
	return r.exec(ctx, `
		UPDATE doctors SET record_status = $2, archived_at = $3, updated_at = now() WHERE id = $1
	`, id, status, archivedAt)
}

func (r *PgRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(db.Querier(ctx, r.pool).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Doctor, int, error) {
	q := db.Querier(ctx, r.pool)
	const where = ` WHERE d.record_status = $1 AND ($2 = '' OR lower(d.specialization) = lower($2))`

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM doctors d`+where, f.Status, f.Specialization).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := q.Query(ctx, doctorSelect+where+`
		ORDER BY u.full_name, d.id
		LIMIT $3 OFFSET $4
	`, f.Status, f.Specialization, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}
