package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
	"github.com/ignatzorin/petway-backend/internal/storage"
	"github.com/ignatzorin/petway-backend/internal/validation"
)

// События ленты объявлений.
const (
	EventPetCreated       = "pet.created"
	EventPetStatusChanged = "pet.status_changed"
	EventPetDeleted       = "pet.deleted"
)

// PetRepository описывает хранилище объявлений.
type PetRepository interface {
	Create(ctx context.Context, pet *models.Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	List(ctx context.Context, filter models.PetFilter) ([]models.Pet, error)
	Update(ctx context.Context, pet *models.Pet) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore сохраняет и удаляет фотографии.
type ImageStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, originalName, contentType string, r io.Reader) (storage.StoredImage, error)
	Delete(ctx context.Context, key string) error
}

// Publisher рассылает события подписчикам ленты.
type Publisher interface {
	Publish(event string, data any) error
}

// Upload - загруженный файл фотографии.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// PetInput - поля нового объявления.
type PetInput struct {
	Name        string
	Kind        string
	Breed       string
	Age         string
	Description string
	City        string
	Phone       string
	Status      string
	Location    *models.GeoPoint
}

// PetPatch - частичное обновление. nil означает «не менять».
type PetPatch struct {
	Name          *string
	Kind          *string
	Breed         *string
	Age           *string
	Description   *string
	City          *string
	Phone         *string
	Status        *string
	Location      *models.GeoPoint
	ClearLocation bool
}

// PetService реализует CRUD объявлений о питомцах.
type PetService struct {
	repo      PetRepository
	images    ImageStore
	publisher Publisher
}

// NewPetService создаёт сервис объявлений.
func NewPetService(repo PetRepository, images ImageStore, publisher Publisher) *PetService {
	return &PetService{repo: repo, images: images, publisher: publisher}
}

// Create создаёт объявление. Фотография необязательна.
func (s *PetService) Create(ctx context.Context, ownerID uuid.UUID, in PetInput, photo *Upload) (*models.Pet, error) {
	pet := &models.Pet{
		OwnerID:     ownerID,
		Name:        validation.SanitizeText(in.Name),
		Kind:        validation.SanitizeText(in.Kind),
		Breed:       validation.SanitizeText(in.Breed),
		Age:         validation.SanitizeText(in.Age),
		Description: validation.SanitizeText(in.Description),
		City:        validation.SanitizeText(in.City),
		Phone:       validation.SanitizePhone(in.Phone),
		Status:      in.Status,
	}
	if pet.Status == "" {
		pet.Status = models.PetStatusLost
	}
	pet.SetLocation(in.Location)

	if err := validation.ValidatePet(pet); err != nil {
		return nil, err
	}

	if photo != nil {
		img, err := s.saveImage(ctx, ownerID, photo)
		if err != nil {
			return nil, err
		}
		pet.PhotoURL, pet.PhotoKey = img.URL, img.Key
	}

	if err := s.repo.Create(ctx, pet); err != nil {
		s.dropImage(ctx, pet.PhotoKey)
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	s.publish(EventPetCreated, created)
	return created, nil
}

// List возвращает объявления по фильтру.
func (s *PetService) List(ctx context.Context, filter models.PetFilter) ([]models.Pet, error) {
	if filter.Status != "" {
		if err := validation.ValidatePetStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	filter.City = validation.SanitizeText(filter.City)
	filter.Kind = validation.SanitizeText(filter.Kind)
	return s.repo.List(ctx, filter)
}

// Get возвращает объявление и признак того, что viewer его владелец.
func (s *PetService) Get(ctx context.Context, id, viewer uuid.UUID) (*models.Pet, bool, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return pet, viewer != uuid.Nil && viewer == pet.OwnerID, nil
}

// Update применяет частичное обновление. Новая фотография заменяет старую.
func (s *PetService) Update(ctx context.Context, id, userID uuid.UUID, patch PetPatch, photo *Upload) (*models.Pet, error) {
	pet, err := s.ownedPet(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	applyText := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeText(*src)
		}
	}
	oldStatus := pet.Status
	applyText(&pet.Name, patch.Name)
	applyText(&pet.Kind, patch.Kind)
	applyText(&pet.Breed, patch.Breed)
	applyText(&pet.Age, patch.Age)
	applyText(&pet.Description, patch.Description)
	applyText(&pet.City, patch.City)
	if patch.Phone != nil {
		pet.Phone = validation.SanitizePhone(*patch.Phone)
	}
	if patch.Status != nil {
		pet.Status = *patch.Status
	}
	switch {
	case patch.ClearLocation:
		pet.SetLocation(nil)
	case patch.Location != nil:
		pet.SetLocation(patch.Location)
	}

	if err := validation.ValidatePet(pet); err != nil {
		return nil, err
	}

	oldKey := pet.PhotoKey
	if photo != nil {
		img, err := s.saveImage(ctx, userID, photo)
		if err != nil {
			return nil, err
		}
		pet.PhotoURL, pet.PhotoKey = img.URL, img.Key
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		if photo != nil {
			s.dropImage(ctx, pet.PhotoKey)
		}
		return nil, err
	}
	if photo != nil {
		s.dropImage(ctx, oldKey)
	}
	if pet.Status != oldStatus {
		s.publish(EventPetStatusChanged, map[string]any{"id": id, "status": pet.Status})
	}

	return s.repo.GetByID(ctx, id)
}

// UpdateStatus меняет статус объявления (lost/found).
func (s *PetService) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status string) error {
	if err := validation.ValidatePetStatus(status); err != nil {
		return err
	}
	if _, err := s.ownedPet(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.publish(EventPetStatusChanged, map[string]any{"id": id, "status": status})
	return nil
}

// Delete удаляет объявление и, по возможности, его фотографию.
func (s *PetService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	pet, err := s.ownedPet(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.dropImage(ctx, pet.PhotoKey)
	s.publish(EventPetDeleted, map[string]any{"id": id})
	return nil
}

func (s *PetService) ownedPet(ctx context.Context, id, userID uuid.UUID) (*models.Pet, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != userID {
		return nil, apperror.ErrForbidden
	}
	return pet, nil
}

func (s *PetService) saveImage(ctx context.Context, ownerID uuid.UUID, photo *Upload) (storage.StoredImage, error) {
	img, err := s.images.Save(ctx, ownerID, photo.Name, photo.ContentType, photo.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return storage.StoredImage{}, apperror.Validation("фотография слишком большая")
		}
		return storage.StoredImage{}, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить фотографию")
	}
	return img, nil
}

func (s *PetService) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key}).WithError(err).Warn("pets: не удалось удалить фотографию")
	}
}

func (s *PetService) publish(event string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event, data); err != nil {
		logger.Log.WithField("event", event).WithError(err).Warn("pets: не удалось отправить событие")
	}
}
