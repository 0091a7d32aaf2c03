package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hairy-paws/internal/domain/adoptions"
)

const adoptionsPendingKey = "adoption_requests_pending_uq"

type AdoptionsRepo struct {
	db *sql.DB
}

func NewAdoptionsRepo(db *sql.DB) *AdoptionsRepo {
	return &AdoptionsRepo{db: db}
}

const adoptionColumns = `
	id, animal_id, owner_user_id, adopter_user_id,
	type, status, visit_date, notes,
	decided_by, decided_at,
	created_at, updated_at`

func (r *AdoptionsRepo) Create(ctx context.Context, req adoptions.Request) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO adoption_requests (`+adoptionColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		req.ID,
		req.AnimalID,
		req.OwnerUserID,
		req.AdopterUserID,
		string(req.Type),
		string(req.Status),
		toNullTime(req.VisitDate),
		req.Notes,
		req.DecidedBy,
		toNullTime(req.DecidedAt),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, adoptionsPendingKey) {
			return adoptions.ErrDuplicatePending
		}
		return fmt.Errorf("insert adoption request: %w", err)
	}
	return nil
}

func (r *AdoptionsRepo) GetByID(ctx context.Context, id string) (adoptions.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return adoptions.Request{}, adoptions.ErrNotFound
	}

	req, err := scanAdoption(r.db.QueryRowContext(ctx, `SELECT `+adoptionColumns+` FROM adoption_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return adoptions.Request{}, adoptions.ErrNotFound
		}
		return adoptions.Request{}, fmt.Errorf("get adoption request: %w", err)
	}
	return req, nil
}

func (r *AdoptionsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]adoptions.Request, error) {
	return r.query(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoption_requests
		WHERE owner_user_id = $1
		ORDER BY created_at DESC, id
	`, ownerUserID)
}

func (r *AdoptionsRepo) ListByAdopter(ctx context.Context, adopterUserID string) ([]adoptions.Request, error) {
	return r.query(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoption_requests
		WHERE adopter_user_id = $1
		ORDER BY created_at DESC, id
	`, adopterUserID)
}

// ApplyDecision hace el compare-and-set sobre status = 'PENDING' y, si corresponde,
// marca el animal ADOPTED solo si sigue AVAILABLE. Todo en una transacción: si el
// animal ya no está disponible, la solicitud queda PENDING.
func (r *AdoptionsRepo) ApplyDecision(ctx context.Context, d adoptions.Decision) (adoptions.Request, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return adoptions.Request{}, fmt.Errorf("begin decision: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	req, err := scanAdoption(tx.QueryRowContext(ctx, `
		UPDATE adoption_requests
		SET
			status = $2,
			notes = $3,
			decided_by = $4,
			decided_at = $5,
			updated_at = $5
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+adoptionColumns,
		d.RequestID,
		string(d.Status),
		d.Notes,
		d.DecidedBy,
		d.DecidedAt,
	))
	if err != nil {
		if isInvalidID(err) {
			return adoptions.Request{}, adoptions.ErrNotFound
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return adoptions.Request{}, fmt.Errorf("apply decision: %w", err)
		}
		// Nadie matcheó: o no existe o ya fue decidida.
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM adoption_requests WHERE id = $1)`, d.RequestID).Scan(&exists); err != nil {
			return adoptions.Request{}, fmt.Errorf("check adoption request: %w", err)
		}
		if !exists {
			return adoptions.Request{}, adoptions.ErrNotFound
		}
		return adoptions.Request{}, adoptions.ErrNotPending
	}

	if d.AdoptAnimalID != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE animals
			SET adoption_status = 'ADOPTED', updated_at = $2
			WHERE id = $1 AND adoption_status = 'AVAILABLE'
		`, d.AdoptAnimalID, d.DecidedAt)
		if err != nil {
			return adoptions.Request{}, fmt.Errorf("adopt animal: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return adoptions.Request{}, adoptions.ErrAnimalUnavailable
		}
	}

	if err := tx.Commit(); err != nil {
		return adoptions.Request{}, fmt.Errorf("commit decision: %w", err)
	}
	return req, nil
}

func (r *AdoptionsRepo) query(ctx context.Context, query string, args ...any) ([]adoptions.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isInvalidID(err) {
			return []adoptions.Request{}, nil
		}
		return nil, fmt.Errorf("list adoption requests: %w", err)
	}
	defer rows.Close()

	out := make([]adoptions.Request, 0)
	for rows.Next() {
		req, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanAdoption(s scanner) (adoptions.Request, error) {
	var req adoptions.Request
	var typ, status string
	var visitDate, decidedAt sql.NullTime

	if err := s.Scan(
		&req.ID,
		&req.AnimalID,
		&req.OwnerUserID,
		&req.AdopterUserID,
		&typ,
		&status,
		&visitDate,
		&req.Notes,
		&req.DecidedBy,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return adoptions.Request{}, err
	}

	req.Type = adoptions.Type(typ)
	req.Status = adoptions.Status(status)
	req.VisitDate = fromNullTime(visitDate)
	req.DecidedAt = fromNullTime(decidedAt)
	return req, nil
}

var _ adoptions.Repository = (*AdoptionsRepo)(nil)
