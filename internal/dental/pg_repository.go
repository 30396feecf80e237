package dental

import (
	"context"
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

const observationColumns = `
	id, patient_id, appointment_id, tooth_number, surfaces, condition, notes, observed_at, created_at`

const procedureColumns = `
	id, patient_id, appointment_id, doctor_id, tooth_numbers, procedure_code, description,
	status, cost, performed_at, created_at, updated_at`

func scanObservation(row pgx.Row) (*Observation, error) {
	var (
		o        Observation
		surfaces []string
	)
	err := row.Scan(
		&o.ID,
		&o.PatientID,
		&o.AppointmentID,
		&o.ToothNumber,
		&surfaces,
		&o.Condition,
		&o.Notes,
		&o.ObservedAt,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Surfaces = make([]Surface, len(surfaces))
	for i, s := range surfaces {
		o.Surfaces[i] = Surface(s)
	}
	return &o, nil
}

func scanProcedure(row pgx.Row) (*Procedure, error) {
	var p Procedure
	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.AppointmentID,
		&p.DoctorID,
		&p.ToothNumbers,
		&p.ProcedureCode,
		&p.Description,
		&p.Status,
		&p.Cost,
		&p.PerformedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrProcedureNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) CreateObservation(ctx context.Context, o *Observation) error {
	surfaces := make([]string, len(o.Surfaces))
	for i, s := range o.Surfaces {
		surfaces[i] = string(s)
	}
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO dental_observations (
			id, patient_id, appointment_id, tooth_number, surfaces, condition, notes, observed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.PatientID, o.AppointmentID, o.ToothNumber, surfaces, string(o.Condition), o.Notes, o.ObservedAt, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dental observation: %w", err)
	}
	return nil
}

func (r *PgRepository) ListObservations(ctx context.Context, patientID uuid.UUID, tooth int) ([]Observation, error) {
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT `+observationColumns+`
		FROM dental_observations
		WHERE patient_id = $1 AND ($2 = 0 OR tooth_number = $2)
		ORDER BY observed_at DESC, created_at DESC
	`, patientID, tooth)
	if err != nil {
		return nil, fmt.Errorf("query dental observations: %w", err)
	}
	defer rows.Close()

	out := []Observation{}
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PgRepository) CreateProcedure(ctx context.Context, p *Procedure) error {
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO dental_procedures (
			id, patient_id, appointment_id, doctor_id, tooth_numbers, procedure_code, description,
			status, cost, performed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		p.ID, p.PatientID, p.AppointmentID, p.DoctorID, p.ToothNumbers, p.ProcedureCode, p.Description,
		string(p.Status), p.Cost, p.PerformedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dental procedure: %w", err)
	}
	return nil
}

func (r *PgRepository) GetProcedure(ctx context.Context, id uuid.UUID) (*Procedure, error) {
	return scanProcedure(db.Querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+procedureColumns+` FROM dental_procedures WHERE id = $1`, id))
}

func (r *PgRepository) ListProcedures(ctx context.Context, patientID uuid.UUID) ([]Procedure, error) {
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT `+procedureColumns+`
		FROM dental_procedures
		WHERE patient_id = $1
		ORDER BY created_at
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query dental procedures: %w", err)
	}
	defer rows.Close()

	out := []Procedure{}
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgRepository) UpdateProcedureStatus(ctx context.Context, id uuid.UUID, from, to ProcedureStatus, performedAt *time.Time) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE dental_procedures SET status = $3, performed_at = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), performedAt)
	if err != nil {
		return fmt.Errorf("update dental procedure status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}
