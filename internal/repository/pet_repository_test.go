package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

var petColumns = []string{
	"id", "owner_id", "owner_name", "name", "kind", "breed", "age", "description",
	"city", "phone", "photo_url", "photo_key", "status", "longitude", "latitude", "created_at",
}

func TestPetRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`INSERT INTO pets`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), time.Now()))

	pet := &models.Pet{OwnerID: uuid.New(), Name: "Rex", Kind: "dog", City: "Moscow", Status: models.PetStatusLost}
	pet.SetLocation(&models.GeoPoint{Lng: 37.6, Lat: 55.7})

	require.NoError(t, repo.Create(context.Background(), pet))
	assert.Equal(t, id, pet.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)

	id, owner := uuid.New(), uuid.New()
	mock.ExpectQuery(`FROM pets p\s+JOIN users u ON u.id = p.owner_id\s+WHERE p.id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(petColumns).AddRow(
			id.String(), owner.String(), "Anna", "Rex", "dog", "", "3", "", "Moscow", "+7999", "", "",
			"lost", 37.6, 55.7, time.Now(),
		))

	pet, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Anna", pet.OwnerName)
	require.NotNil(t, pet.Location)
	assert.Equal(t, 37.6, pet.Location.Lng)
	assert.Equal(t, 55.7, pet.Location.Lat)
}

func TestPetRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)

	mock.ExpectQuery(`FROM pets p`).WillReturnRows(sqlmock.NewRows(petColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrPetNotFound)
}

func TestPetRepository_List_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)

	mock.ExpectQuery(`WHERE p.status = \$1 AND LOWER\(p.city\) = LOWER\(\$2\) ORDER BY p.created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("found", "Kazan", 100, 0).
		WillReturnRows(sqlmock.NewRows(petColumns).AddRow(
			uuid.New().String(), uuid.New().String(), "Anna", "Murka", "cat", "", "", "", "Kazan", "", "", "",
			"found", nil, nil, time.Now(),
		))

	pets, err := repo.List(context.Background(), models.PetFilter{Status: "found", City: "Kazan", Limit: 500, Offset: -3})
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Nil(t, pets[0].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetRepository_List_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)

	mock.ExpectQuery(`ORDER BY p.created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(petColumns))

	pets, err := repo.List(context.Background(), models.PetFilter{})
	require.NoError(t, err)
	assert.NotNil(t, pets)
	assert.Empty(t, pets)
}

func TestPetRepository_Mutations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPetRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE pets\s+SET name = \$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE pets SET status = \$1 WHERE id = \$2`).
		WithArgs("found", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM pets WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Update(context.Background(), &models.Pet{ID: id, Name: "Rex"}))
	assert.NoError(t, repo.UpdateStatus(context.Background(), id, "found"))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), apperror.ErrPetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
