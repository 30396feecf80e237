package medicine

import (
	"context"
	"fmt"
	"strings"

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

const medicineColumns = `
	id, name, generic_name, manufacturer, form, strength,
	record_status, archived_at, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.GenericName,
		&m.Manufacturer,
		&m.Form,
		&m.Strength,
		&m.RecordStatus,
		&m.ArchivedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}
	return &m, nil
}

func mapMedicineErr(err error) error {
	if db.IsUniqueViolation(err, "medicines_active_name_key") {
		return ErrMedicineNameTaken
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, m *Medicine) error {
	_, err := db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO medicines (
			id, name, generic_name, manufacturer, form, strength,
			record_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		m.ID, m.Name, m.GenericName, m.Manufacturer, string(m.Form), m.Strength,
		string(m.RecordStatus), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert medicine: %w", mapMedicineErr(err))
	}
	return nil
}

func (r *PgRepository) Update(ctx context.Context, m *Medicine) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE medicines SET
			name = $2, generic_name = $3, manufacturer = $4, form = $5,
			strength = $6, updated_at = $7
		WHERE id = $1
	`, m.ID, m.Name, m.GenericName, m.Manufacturer, string(m.Form), m.Strength, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update medicine: %w", mapMedicineErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicineNotFound
	}
	return nil
}

func (r *PgRepository) SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE medicines
		SET record_status = $2,
		    archived_at = CASE WHEN $2 = 'archived' THEN now() ELSE NULL END,
		    updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("set medicine status: %w", mapMedicineErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrMedicineNotFound
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	row := db.Querier(ctx, r.pool).QueryRow(ctx,
		`SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	return scanMedicine(row)
}

func (r *PgRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Medicine, error) {
	out := make(map[uuid.UUID]*Medicine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Querier(ctx, r.pool).Query(ctx,
		`SELECT `+medicineColumns+` FROM medicines WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query medicines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

func (r *PgRepository) Search(ctx context.Context, f SearchFilter) ([]Medicine, int, error) {
	conds := []string{"record_status = $1"}
	args := []any{string(f.Status)}
	if f.Query != "" {
		args = append(args, db.LikePrefix(strings.ToLower(f.Query)))
		conds = append(conds, fmt.Sprintf("(lower(name) LIKE $%[1]d OR lower(generic_name) LIKE $%[1]d)", len(args)))
	}
	if f.Form != "" {
		args = append(args, string(f.Form))
		conds = append(conds, fmt.Sprintf("form = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	q := db.Querier(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM medicines`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medicines: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM medicines%s ORDER BY lower(name) LIMIT $%d OFFSET $%d`,
		medicineColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search medicines: %w", err)
	}
	defer rows.Close()

	out := []Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

// PgShortKeyRepository stores short keys and their ordered items.
type PgShortKeyRepository struct {
	pool db.DBTX
}

func NewPgShortKeyRepository(pool db.DBTX) *PgShortKeyRepository {
	return &PgShortKeyRepository{pool: pool}
}

const shortKeyColumns = `
	id, code, name, description, doctor_id, record_status, archived_at, created_at, updated_at`

func scanShortKey(row pgx.Row) (*ShortKey, error) {
	var k ShortKey
	err := row.Scan(
		&k.ID,
		&k.Code,
		&k.Name,
		&k.Description,
		&k.DoctorID,
		&k.RecordStatus,
		&k.ArchivedAt,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrShortKeyNotFound
		}
		return nil, err
	}
	k.Items = []ShortKeyItem{}
	return &k, nil
}

func mapShortKeyErr(err error) error {
	switch {
	case db.IsUniqueViolation(err, "short_keys_code_key"):
		return ErrCodeTaken
	case db.IsForeignKeyViolation(err):
		return ErrOwnerNotFound
	}
	return err
}

func (r *PgShortKeyRepository) Create(ctx context.Context, k *ShortKey) error {
	q := db.Querier(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO short_keys (id, code, name, description, doctor_id, record_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, k.ID, k.Code, k.Name, k.Description, k.DoctorID, string(k.RecordStatus), k.CreatedAt, k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert short key: %w", mapShortKeyErr(err))
	}
	return insertItems(ctx, q, k.ID, k.Items)
}

func insertItems(ctx context.Context, q db.DBTX, keyID uuid.UUID, items []ShortKeyItem) error {
	for i, it := range items {
		_, err := q.Exec(ctx, `
			INSERT INTO short_key_items (
				id, short_key_id, position, medicine_id, dosage, frequency,
				duration, instructions, quantity
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, it.ID, keyID, i, it.MedicineID, it.Dosage, it.Frequency, it.Duration, it.Instructions, it.Quantity)
		if err != nil {
			return fmt.Errorf("insert short key item %d: %w", i, err)
		}
	}
	return nil
}

func (r *PgShortKeyRepository) Update(ctx context.Context, k *ShortKey) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE short_keys SET name = $2, description = $3, updated_at = $4 WHERE id = $1
	`, k.ID, k.Name, k.Description, k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update short key: %w", mapShortKeyErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrShortKeyNotFound
	}
	return nil
}

func (r *PgShortKeyRepository) ReplaceItems(ctx context.Context, id uuid.UUID, items []ShortKeyItem) error {
	q := db.Querier(ctx, r.pool)
	if _, err := q.Exec(ctx, `DELETE FROM short_key_items WHERE short_key_id = $1`, id); err != nil {
		return fmt.Errorf("clear short key items: %w", err)
	}
	return insertItems(ctx, q, id, items)
}

func (r *PgShortKeyRepository) SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error {
	tag, err := db.Querier(ctx, r.pool).Exec(ctx, `
		UPDATE short_keys
		SET record_status = $2,
		    archived_at = CASE WHEN $2 = 'archived' THEN now() ELSE NULL END,
		    updated_at = now()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("set short key status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShortKeyNotFound
	}
	return nil
}

func (r *PgShortKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*ShortKey, error) {
	return r.getOne(ctx, `SELECT `+shortKeyColumns+` FROM short_keys WHERE id = $1`, id)
}

func (r *PgShortKeyRepository) GetByCode(ctx context.Context, code string) (*ShortKey, error) {
	return r.getOne(ctx, `SELECT `+shortKeyColumns+` FROM short_keys WHERE code = $1`, code)
}

func (r *PgShortKeyRepository) getOne(ctx context.Context, query string, arg any) (*ShortKey, error) {
	q := db.Querier(ctx, r.pool)
	k, err := scanShortKey(q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []uuid.UUID{k.ID})
	if err != nil {
		return nil, err
	}
	if its, ok := items[k.ID]; ok {
		k.Items = its
	}
	return k, nil
}

func (r *PgShortKeyRepository) List(ctx context.Context, f ShortKeyFilter) ([]ShortKey, int, error) {
	conds := []string{"record_status = $1"}
	args := []any{string(f.Status)}
	if f.DoctorID != uuid.Nil {
		args = append(args, f.DoctorID)
		conds = append(conds, fmt.Sprintf("(doctor_id = $%d OR doctor_id IS NULL)", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	q := db.Querier(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM short_keys`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count short keys: %w", err)
	}

	args = append(args, f.Page.Limit, f.Page.Offset)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM short_keys%s ORDER BY code LIMIT $%d OFFSET $%d`,
		shortKeyColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list short keys: %w", err)
	}
	defer rows.Close()

	out := []ShortKey{}
	var ids []uuid.UUID
	for rows.Next() {
		k, err := scanShortKey(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *k)
		ids = append(ids, k.ID)
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

func (r *PgShortKeyRepository) loadItems(ctx context.Context, keyIDs []uuid.UUID) (map[uuid.UUID][]ShortKeyItem, error) {
	out := make(map[uuid.UUID][]ShortKeyItem, len(keyIDs))
	if len(keyIDs) == 0 {
		return out, nil
	}
	rows, err := db.Querier(ctx, r.pool).Query(ctx, `
		SELECT i.short_key_id, i.id, i.medicine_id, m.name, i.dosage, i.frequency,
		       i.duration, i.instructions, i.quantity
		FROM short_key_items i
		JOIN medicines m ON m.id = i.medicine_id
		WHERE i.short_key_id = ANY($1)
		ORDER BY i.short_key_id, i.position
	`, keyIDs)
	if err != nil {
		return nil, fmt.Errorf("query short key items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyID uuid.UUID
		var it ShortKeyItem
		if err := rows.Scan(&keyID, &it.ID, &it.MedicineID, &it.MedicineName, &it.Dosage,
			&it.Frequency, &it.Duration, &it.Instructions, &it.Quantity); err != nil {
			return nil, err
		}
		out[keyID] = append(out[keyID], it)
	}
	return out, rows.Err()
}
