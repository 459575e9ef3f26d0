package services

import (
	"errors"
	"fmt"

	"bankledger/database"
	"bankledger/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService — внешний коллаборатор ядра журнала: учетные записи и
// проверка паролей. Балансов и журнала операций он не касается.
type UserService struct {
	db *database.Database
}

type UserDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db}
}

// NewUserDTO конвертирует модель пользователя в DTO
func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
	}
}

// CreateUserInternal создает нового пользователя
func (h *UserService) CreateUserInternal(req CreateUserRequest) (*models.User, error) {
	// Проверяем, существует ли пользователь с таким email
	var existingUser models.User
	if err := h.db.DB.Where("LOWER(email) = LOWER(?)", req.Email).First(&existingUser).Error; err == nil {
		return nil, fmt.Errorf("%w: пользователь с таким email уже существует", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      models.UserRoleUser,
	}

	if err := h.db.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// FindById ищет пользователя по ID
func (h *UserService) FindById(id uint) (*models.User, error) {
	var user models.User
	if err := h.db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: пользователь не найден", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (h *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := h.db.DB.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: пользователь не найден", ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// CheckPassword сверяет пароль с хешем пользователя
func (h *UserService) CheckPassword(user *models.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return fmt.Errorf("%w: неверные учетные данные", ErrUnauthorized)
	}
	return nil
}

// ListUsers возвращает всех пользователей (для административных выборок)
func (h *UserService) ListUsers() ([]UserDTO, error) {
	var users []models.User
	if err := h.db.DB.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении списка пользователей: %w", err)
	}

	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, NewUserDTO(&users[i]))
	}
	return dtos, nil
}
