package prescription

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
)

type PgRepository struct {
	pool db.DBTX
}

func NewPgRepository(pool db.DBTX) *PgRepository {
	return &PgRepository{pool: pool}
}

const prescriptionColumns = `
	id, prescription_number, patient_id, doctor_id, appointment_id, diagnosis,
	notes, status, follow_up_date, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID,
		&p.Number,
		&p.PatientID,
		&p.DoctorID,
		&p.AppointmentID,
		&p.Diagnosis,
		&p.Notes,
		&p.Status,
		&p.FollowUpDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}
	p.Items = []Item{}
	return &p, nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err, "prescriptions_number_key") {
		return ErrNumberCollision
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, p *Prescription) error {
	q := db.Querier(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO prescriptions (
			id, prescription_number, patient_id, doctor_id, appointment_id, diagnosis,
			notes, status, follow_up_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		p.ID, p.Number, p.PatientID, p.DoctorID, p.AppointmentID, p.Diagnosis,
		p.Notes, string(p.Status), p.FollowUpDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prescription: %w", mapWriteErr(err))
	}
	return insertItems(ctx, q, p.ID, 0, p.Items)
}

func insertItems(ctx context.Context, q db.DBTX, rxID uuid.UUID, first int, items []Item) error {
	for i, it := range items {
		_, err := q.Exec(ctx, `
			INSERT INTO prescription_items (
				id, prescription_id, position, medicine_id, medicine_name, dosage,
				frequency, duration, instructions, quantity
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, it.ID, rxID, first+i, it.MedicineID, it.MedicineName, it.Dosage,
			it.Frequency, it.Duration, it.Instructions, it.Quantity)
		if err != nil {
			return fmt.Errorf("insert prescription item: %w", err)
		}
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(db.Querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if its, ok := items[id]; ok {
		p.Items = its
	}
	return p, nil
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Prescription, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.PatientID != uuid.Nil {
		args = append(args, f.PatientID)
		conds = append(conds, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.DoctorID != uuid.Nil {
		args = append(args, f.DoctorID)
		conds = append(conds, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	q := db.Querier(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM prescriptions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM prescriptions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		prescriptionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	out := []Prescription{}
	var ids []uuid.UUID
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if its, ok := items[out[i].ID]; ok {
			out[i].Items = its
		}
	}
	return out, total, nil
}

func (r *PgRepository) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Item, error) {
	out := make(map[uuid.UUID][]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT prescription_id, id, medicine_id, medicine_name, dosage, frequency,
		       duration, instructions, quantity
		FROM prescription_items
		WHERE prescription_id = ANY($1)
		ORDER BY prescription_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query prescription items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rxID uuid.UUID
		var it Item
		if err := rows.Scan(&rxID, &it.ID, &it.MedicineID, &it.MedicineName, &it.Dosage,
			&it.Frequency, &it.Duration, &it.Instructions, &it.Quantity); err != nil {
			return nil, err
		}
		out[rxID] = append(out[rxID], it)
	}
	return out, rows.Err()
}

func (r *PgRepository) UpdateDetails(ctx context.Context, p *Prescription) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE prescriptions SET diagnosis = $2, notes = $3, follow_up_date = $4, updated_at = $5
		WHERE id = $1
	`, p.ID, p.Diagnosis, p.Notes, p.FollowUpDate, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE prescriptions SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update prescription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *PgRepository) AddItems(ctx context.Context, id uuid.UUID, items []Item) error {
	q := db.Querier(ctx, r.pool)
	var next int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(max(position) + 1, 0) FROM prescription_items WHERE prescription_id = $1`, id,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next item position: %w", err)
	}
	if err := insertItems(ctx, q, id, next, items); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Wrap(ErrPrescriptionNotFound, err)
		}
		return err
	}
	return nil
}

func (r *PgRepository) RemoveItem(ctx context.Context, id, itemID uuid.UUID) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx,
		`DELETE FROM prescription_items WHERE prescription_id = $1 AND id = $2`, id, itemID)
	if err != nil {
		return fmt.Errorf("delete prescription item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
