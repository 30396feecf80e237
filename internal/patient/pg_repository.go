package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinicdesk/internal/db"
)

type PgRepository struct {
	pool db.DBTX
}

func NewPgRepository(pool db.DBTX) *PgRepository {
	return &PgRepository{pool: pool}
}

const patientColumns = `
	id, mobile_number, first_name, last_name, date_of_birth, gender,
	relationship_to_primary, primary_contact_mobile, emergency_contact, email,
	address, blood_group, allergies, record_status, archived_at, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.MobileNumber,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Gender,
		&p.Relationship,
		&p.PrimaryContactMobile,
		&p.EmergencyContact,
		&p.Email,
		&p.Address,
		&p.BloodGroup,
		&p.Allergies,
		&p.RecordStatus,
		&p.ArchivedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]Patient, error) {
	defer rows.Close()
	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// mapWriteErr turns constraint violations into the matching domain error.
func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err, "patients_mobile_first_key"):
		return ErrDuplicatePatient
	case db.IsUniqueViolation(err, "patients_one_self_per_mobile"):
		return ErrSelfExists
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) error {
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (
			id, mobile_number, first_name, last_name, date_of_birth, gender,
			relationship_to_primary, primary_contact_mobile, emergency_contact, email,
			address, blood_group, allergies, record_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		p.ID, p.MobileNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.Relationship, p.PrimaryContactMobile, p.EmergencyContact, p.Email,
		p.Address, p.BloodGroup, p.Allergies, p.RecordStatus, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", mapWriteErr(err))
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET
			last_name = $2, date_of_birth = $3, gender = $4,
			relationship_to_primary = $5, primary_contact_mobile = $6,
			emergency_contact = $7, email = $8, address = $9, blood_group = $10,
			allergies = $11, updated_at = $12
		WHERE id = $1
	`,
		p.ID, p.LastName, p.DateOfBirth, p.Gender,
		p.Relationship, p.PrimaryContactMobile,
		p.EmergencyContact, p.Email, p.Address, p.BloodGroup,
		p.Allergies, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) (*Patient, error) {
	var archivedAt *time.Time
	if status == db.RecordArchived {
		now := time.Now()
		archivedAt = &now
	}
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients
		SET record_status = $2, archived_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns,
		id, status, archivedAt,
	)
	p, err := scanPatient(row)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) FindByKey(ctx context.Context, mobile, firstName string) (*Patient, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE mobile_number = $1 AND first_name = $2
	`, mobile, firstName)
	return scanPatient(row)
}

func (r *PgRepository) FindSelfMember(ctx context.Context, mobile string) (*Patient, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE mobile_number = $1
		  AND relationship_to_primary = 'self'
		  AND record_status = 'active'
	`, mobile)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, ErrFamilyRootNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PgRepository) CountFamilyMembers(ctx context.Context, mobile string) (int, error) {
	var n int
	err := db.Querier(ctx, r.pool).QueryRow(ctx, `
		SELECT count(*)
		FROM patients
		WHERE mobile_number = $1 AND record_status = 'active'
	`, mobile).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count family members: %w", err)
	}
	return n, nil
}

func (r *PgRepository) ListFamily(ctx context.Context, mobile string) ([]Patient, error) {
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE mobile_number = $1 AND record_status = 'active'
		ORDER BY relationship_to_primary <> 'self', created_at
	`, mobile)
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	return collectPatients(rows)
}

func (r *PgRepository) Search(ctx context.Context, f SearchFilter) ([]Patient, int, error) {
	q := db.Querier(ctx, r.pool)
	pattern := db.LikePrefix(f.Query)

	const where = `
		WHERE record_status = $1
		  AND ($2 = '%' OR mobile_number LIKE $2 OR first_name ILIKE $2 OR last_name ILIKE $2)`

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM patients`+where, f.Status, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients`+where+`
		ORDER BY last_name, first_name, mobile_number
		LIMIT $3 OFFSET $4
	`, f.Status, pattern, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	out, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
