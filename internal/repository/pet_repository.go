package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
	"github.com/ignatzorin/petway-backend/internal/repository/common"
)

const (
	defaultPetLimit = 20
	maxPetLimit     = 100
)

const petSelect = `
	SELECT p.id, p.owner_id, u.name AS owner_name, p.name, p.kind, p.breed, p.age, p.description,
		p.city, p.phone, p.photo_url, p.photo_key, p.status, p.longitude, p.latitude, p.created_at
	FROM pets p
	JOIN users u ON u.id = p.owner_id
`

// PetRepository отвечает за объявления о питомцах.
type PetRepository struct {
	db *sqlx.DB
}

// NewPetRepository создаёт экземпляр репозитория.
func NewPetRepository(db *sqlx.DB) *PetRepository {
	return &PetRepository{db: db}
}

// Create сохраняет объявление и заполняет id и created_at.
func (r *PetRepository) Create(ctx context.Context, pet *models.Pet) error {
	query := `
		INSERT INTO pets (owner_id, name, kind, breed, age, description, city, phone, photo_url, photo_key, status, longitude, latitude)
		VALUES (:owner_id, :name, :kind, :breed, :age, :description, :city, :phone, :photo_url, :photo_key, :status, :longitude, :latitude)
		RETURNING id, created_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, pet)
	if err != nil {
		return fmt.Errorf("pet repository: create %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&pet.ID, &pet.CreatedAt); err != nil {
			return fmt.Errorf("pet repository: scan %w", err)
		}
	}
	return rows.Err()
}

// GetByID возвращает объявление вместе с именем владельца.
func (r *PetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.GetContext(ctx, &pet, petSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, common.MapNoRows(err, apperror.ErrPetNotFound, "pet repository: get by id")
	}
	pet.SyncLocation()
	return &pet, nil
}

// List возвращает объявления от новых к старым с фильтрами.
func (r *PetRepository) List(ctx context.Context, filter models.PetFilter) ([]models.Pet, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("p.status = $%d", filter.Status)
	}
	if filter.City != "" {
		add("LOWER(p.city) = LOWER($%d)", filter.City)
	}
	if filter.Kind != "" {
		add("LOWER(p.kind) = LOWER($%d)", filter.Kind)
	}

	query := petSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPetLimit
	}
	if limit > maxPetLimit {
		limit = maxPetLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	pets := []models.Pet{}
	if err := r.db.SelectContext(ctx, &pets, query, args...); err != nil {
		return nil, fmt.Errorf("pet repository: list %w", err)
	}
	for i := range pets {
		pets[i].SyncLocation()
	}
	return pets, nil
}

// Update перезаписывает редактируемые поля объявления.
func (r *PetRepository) Update(ctx context.Context, pet *models.Pet) error {
	query := `
		UPDATE pets
		SET name = :name, kind = :kind, breed = :breed, age = :age, description = :description,
			city = :city, phone = :phone, photo_url = :photo_url, photo_key = :photo_key,
			status = :status, longitude = :longitude, latitude = :latitude
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, pet)
	if err != nil {
		return fmt.Errorf("pet repository: update %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrPetNotFound, "pet repository: update")
}

// UpdateStatus меняет только статус объявления.
func (r *PetRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pets SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("pet repository: update status %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrPetNotFound, "pet repository: update status")
}

// Delete удаляет объявление.
func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pet repository: delete %w", err)
	}
	return common.EnsureAffected(res, apperror.ErrPetNotFound, "pet repository: delete")
}
