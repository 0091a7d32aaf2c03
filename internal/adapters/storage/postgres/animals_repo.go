package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hairy-paws/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `
	id, owner_user_id,
	name, type, breed, gender, age, weight,
	color, description, health_details,
	is_vaccinated, is_neutered,
	adoption_status, images,
	created_at, updated_at`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	images, err := encodeImages(a.Images)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO animals (`+animalColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		a.ID,
		a.OwnerUserID,
		a.Name,
		string(a.Type),
		a.Breed,
		string(a.Gender),
		a.Age,
		toNullWeight(a.Weight),
		a.Color,
		a.Description,
		a.HealthDetails,
		a.IsVaccinated,
		a.IsNeutered,
		string(a.AdoptionStatus),
		images,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert animal: %w", err)
	}
	return nil
}

// Update no pisa un ADOPTED aplicado por una aprobación concurrente.
func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	images, err := encodeImages(a.Images)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			type = $3,
			breed = $4,
			gender = $5,
			age = $6,
			weight = $7,
			color = $8,
			description = $9,
			health_details = $10,
			is_vaccinated = $11,
			is_neutered = $12,
			adoption_status = CASE WHEN adoption_status = 'ADOPTED' THEN adoption_status ELSE $13 END,
			images = $14,
			updated_at = $15
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		string(a.Type),
		a.Breed,
		string(a.Gender),
		a.Age,
		toNullWeight(a.Weight),
		a.Color,
		a.Description,
		a.HealthDetails,
		a.IsVaccinated,
		a.IsNeutered,
		string(a.AdoptionStatus),
		images,
		a.UpdatedAt,
	)
	if err != nil {
		if isInvalidID(err) {
			return animals.ErrNotFound
		}
		return fmt.Errorf("update animal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) AppendImage(ctx context.Context, id, url string, at time.Time) (animals.Animal, error) {
	entry, err := encodeImages([]string{url})
	if err != nil {
		return animals.Animal{}, err
	}
	a, err := scanAnimal(r.db.QueryRowContext(ctx, `
		UPDATE animals
		SET images = images || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING `+animalColumns,
		id, entry, at,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, fmt.Errorf("append animal image: %w", err)
	}
	return a, nil
}

// Delete: las solicitudes caen por ON DELETE CASCADE.
func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return animals.ErrNotFound
		}
		return fmt.Errorf("delete animal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	a, err := scanAnimal(r.db.QueryRowContext(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, fmt.Errorf("get animal: %w", err)
	}
	return a, nil
}

func (r *AnimalsRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + animalColumns + ` FROM animals WHERE TRUE`)

	args := []any{}
	argN := 1

	if f.Type != "" {
		sb.WriteString(fmt.Sprintf(" AND type = $%d", argN))
		args = append(args, string(f.Type))
		argN++
	}
	if f.Gender != "" {
		sb.WriteString(fmt.Sprintf(" AND gender = $%d", argN))
		args = append(args, string(f.Gender))
		argN++
	}
	if f.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND adoption_status = $%d", argN))
		args = append(args, string(f.Status))
		argN++
	}
	// q: búsqueda simple en nombre + raza
	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR breed ILIKE $%d)", argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = animals.DefaultListLimit
	}
	if limit > animals.MaxListLimit {
		limit = animals.MaxListLimit
	}

	sb.WriteString(" ORDER BY created_at DESC, id")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1))
	args = append(args, limit, max(f.Offset, 0))

	return r.query(ctx, sb.String(), args...)
}

func (r *AnimalsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]animals.Animal, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return []animals.Animal{}, nil
	}
	return r.query(ctx, `
		SELECT `+animalColumns+`
		FROM animals
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id
	`, ownerUserID)
}

func (r *AnimalsRepo) query(ctx context.Context, query string, args ...any) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list animals: %w", err)
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnimal(s scanner) (animals.Animal, error) {
	var a animals.Animal
	var typ, gender, status string
	var weight sql.NullFloat64
	var images []byte

	if err := s.Scan(
		&a.ID,
		&a.OwnerUserID,
		&a.Name,
		&typ,
		&a.Breed,
		&gender,
		&a.Age,
		&weight,
		&a.Color,
		&a.Description,
		&a.HealthDetails,
		&a.IsVaccinated,
		&a.IsNeutered,
		&status,
		&images,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return animals.Animal{}, err
	}

	a.Type = animals.Type(typ)
	a.Gender = animals.Gender(gender)
	a.AdoptionStatus = animals.AdoptionStatus(status)
	if weight.Valid {
		a.Weight = weight.Float64
	}

	a.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &a.Images); err != nil {
			return animals.Animal{}, fmt.Errorf("decode images: %w", err)
		}
	}
	return a, nil
}

// images es JSONB (array de URLs).
func encodeImages(in []string) (string, error) {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func toNullWeight(w float64) sql.NullFloat64 {
	if w <= 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: w, Valid: true}
}

var _ animals.Repository = (*AnimalsRepo)(nil)
