package profiles

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

const profileColumns = `id, name, age, gender, blood_group, medical_conditions, health_insurance, date_of_birth, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Gender,
		&p.BloodGroup,
		&p.MedicalConditions,
		&p.HealthInsurance,
		&p.DateOfBirth,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *PGRepo) Create(ctx context.Context, p Profile) (Profile, error) {
	const query = `
INSERT INTO profiles (id, name, age, gender, blood_group, medical_conditions, health_insurance, date_of_birth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
RETURNING ` + profileColumns
	return scanProfile(r.DB.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Age,
		p.Gender,
		p.BloodGroup,
		p.MedicalConditions,
		p.HealthInsurance,
		p.DateOfBirth,
	))
}

func (r *PGRepo) Update(ctx context.Context, p Profile) (Profile, error) {
	const query = `
UPDATE profiles SET
  name = $2,
  age = $3,
  gender = $4,
  blood_group = $5,
  medical_conditions = $6,
  health_insurance = $7,
  date_of_birth = $8,
  updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns
	out, err := scanProfile(r.DB.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Age,
		p.Gender,
		p.BloodGroup,
		p.MedicalConditions,
		p.HealthInsurance,
		p.DateOfBirth,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return out, err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Profile, error) {
	const query = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
LIMIT 1`
	p, err := scanProfile(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (r *PGRepo) List(ctx context.Context) ([]Profile, error) {
	const query = `
SELECT ` + profileColumns + `
FROM profiles
ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
