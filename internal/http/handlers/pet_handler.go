package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/petway-backend/internal/dto"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
	"github.com/ignatzorin/petway-backend/internal/service"
)

const photoField = "photo"

// Допустимые MIME типы фотографий (определяются по магическим байтам)
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PetService - операции над объявлениями.
type PetService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.PetInput, photo *service.Upload) (*models.Pet, error)
	List(ctx context.Context, filter models.PetFilter) ([]models.Pet, error)
	Get(ctx context.Context, id, viewer uuid.UUID) (*models.Pet, bool, error)
	Update(ctx context.Context, id, userID uuid.UUID, patch service.PetPatch, photo *service.Upload) (*models.Pet, error)
	UpdateStatus(ctx context.Context, id, userID uuid.UUID, status string) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// PetHandler обслуживает /pets.
type PetHandler struct {
	pets           PetService
	maxUploadBytes int64
}

// NewPetHandler создаёт хэндлер объявлений.
func NewPetHandler(pets PetService, maxUploadMB int64) *PetHandler {
	return &PetHandler{pets: pets, maxUploadBytes: maxUploadMB << 20}
}

// Create обрабатывает POST /pets (multipart/form-data, фото в поле photo).
func (h *PetHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	location, err := formLocation(form)
	if err != nil {
		_ = c.Error(err)
		return
	}
	photo, err := h.readImage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	pet, err := h.pets.Create(c.Request.Context(), userID, service.PetInput{
		Name:        deref(form.Name),
		Kind:        deref(form.Kind),
		Breed:       deref(form.Breed),
		Age:         deref(form.Age),
		Description: deref(form.Description),
		City:        deref(form.City),
		Phone:       deref(form.Phone),
		Status:      deref(form.Status),
		Location:    location,
	}, photo)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.PetResponse{Pet: pet, IsOwner: true})
}

// List обрабатывает GET /pets?status=&city=&kind=&limit=&offset=.
func (h *PetHandler) List(c *gin.Context) {
	filter := models.PetFilter{
		Status: c.Query("status"),
		City:   c.Query("city"),
		Kind:   c.Query("kind"),
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}

	pets, err := h.pets.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pets)
}

// Get обрабатывает GET /pets/:id. Авторизация необязательна, от неё зависит is_owner.
func (h *PetHandler) Get(c *gin.Context) {
	petID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	viewer, _ := currentUserID(c)

	pet, isOwner, err := h.pets.Get(c.Request.Context(), petID, viewer)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.PetResponse{Pet: pet, IsOwner: isOwner})
}

// Update обрабатывает PUT /pets/:id. Переданные поля меняются, новое фото заменяет старое.
func (h *PetHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	petID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	location, err := formLocation(form)
	if err != nil {
		_ = c.Error(err)
		return
	}
	photo, err := h.readImage(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	pet, err := h.pets.Update(c.Request.Context(), petID, userID, service.PetPatch{
		Name:          form.Name,
		Kind:          form.Kind,
		Breed:         form.Breed,
		Age:           form.Age,
		Description:   form.Description,
		City:          form.City,
		Phone:         form.Phone,
		Status:        form.Status,
		Location:      location,
		ClearLocation: form.ClearLocation,
	}, photo)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.PetResponse{Pet: pet, IsOwner: true})
}

// UpdateStatus обрабатывает PATCH /pets/:id/status.
func (h *PetHandler) UpdateStatus(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	petID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePetStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.pets.UpdateStatus(c.Request.Context(), petID, userID, req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.PetStatusResponse{ID: petID, Status: req.Status})
}

// Delete обрабатывает DELETE /pets/:id.
func (h *PetHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	petID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.pets.Delete(c.Request.Context(), petID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Msg: "объявление удалено"})
}

// bindForm принимает multipart, urlencoded или JSON тело.
func (h *PetHandler) bindForm(c *gin.Context) (dto.PetForm, bool) {
	var form dto.PetForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperror.Wrap(err, apperror.ErrCodeValidation, errBadBody.Message))
		return form, false
	}
	return form, true
}

// readImage читает необязательное фото и проверяет его тип по содержимому.
// Возвращает nil, если файла нет.
func (h *PetHandler) readImage(c *gin.Context) (*service.Upload, error) {
	file, err := c.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл")
	}

	if file.Size == 0 {
		return nil, apperror.Validation("файл не может быть пустым")
	}
	if file.Size > h.maxUploadBytes {
		return nil, apperror.Validation(fmt.Sprintf("файл больше %d МБ", h.maxUploadBytes>>20))
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось открыть файл")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "не удалось прочитать файл")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, apperror.Validation(fmt.Sprintf("файл больше %d МБ", h.maxUploadBytes>>20))
	}

	// Проверяем магические байты (реальный тип файла)
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		return nil, apperror.Validation("разрешены только изображения jpeg, png, gif или webp")
	}

	return &service.Upload{
		Name:        file.Filename,
		ContentType: kind.MIME.Value,
		Body:        bytes.NewReader(data),
	}, nil
}

func formLocation(form dto.PetForm) (*models.GeoPoint, error) {
	if form.Lng == nil && form.Lat == nil {
		return nil, nil
	}
	if form.Lng == nil || form.Lat == nil {
		return nil, apperror.Validation("для координат нужны обе величины lng и lat")
	}
	return &models.GeoPoint{Lng: *form.Lng, Lat: *form.Lat}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
