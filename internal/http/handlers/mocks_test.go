package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/petway-backend/internal/http/middleware"
	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

// newTestRouter собирает gin с обработчиком ошибок и, если userID не Nil, с «авторизованным» пользователем.
func newTestRouter(userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	if userID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserIDKey, userID)
			c.Next()
		})
	}
	return r
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*service.RegisterResult)
	return res, args.Error(1)
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

func (m *mockAuthService) ResendCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*service.LoginResult)
	return res, args.Error(1)
}

func (m *mockAuthService) RequestSecretQuestion(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) VerifySecretAnswer(ctx context.Context, email, answer string) (string, error) {
	args := m.Called(ctx, email, answer)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return m.Called(ctx, resetToken, newPassword).Error(0)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in service.ChangePasswordInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockAuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuthService) SessionTTL() time.Duration {
	return time.Hour
}

type mockPetService struct {
	mock.Mock
}

func (m *mockPetService) Create(ctx context.Context, ownerID uuid.UUID, in service.PetInput, photo *service.Upload) (*models.Pet, error) {
	args := m.Called(ctx, ownerID, in, photo)
	pet, _ := args.Get(0).(*models.Pet)
	return pet, args.Error(1)
}

func (m *mockPetService) List(ctx context.Context, filter models.PetFilter) ([]models.Pet, error) {
	args := m.Called(ctx, filter)
	pets, _ := args.Get(0).([]models.Pet)
	return pets, args.Error(1)
}

func (m *mockPetService) Get(ctx context.Context, id, viewer uuid.UUID) (*models.Pet, bool, error) {
	args := m.Called(ctx, id, viewer)
	pet, _ := args.Get(0).(*models.Pet)
	return pet, args.Bool(1), args.Error(2)
}

func (m *mockPetService) Update(ctx context.Context, id, userID uuid.UUID, patch service.PetPatch, photo *service.Upload) (*models.Pet, error) {
	args := m.Called(ctx, id, userID, patch, photo)
	pet, _ := args.Get(0).(*models.Pet)
	return pet, args.Error(1)
}

func (m *mockPetService) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status string) error {
	return m.Called(ctx, id, userID, status).Error(0)
}

func (m *mockPetService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}
