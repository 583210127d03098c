package service

import (
	"errors"
	"fmt"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmailExists = errors.New("email already exists")
)

// UserService manages accounts. The superuser flag decides row visibility
// for purchases and orders, so only a superuser may grant or revoke it.
type UserService interface {
	CreateUser(req *CreateUserRequest, actor access.Principal) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, actor access.Principal) (*model.User, error)
	DeleteUser(userID uuid.UUID, actor access.Principal) error
	UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, actor access.Principal) (*model.User, error)
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	BirthDate   *string `json:"birth_date"` // Format: YYYY-MM-DD
	RoleID      uint    `json:"role_id" validate:"required"`
	IsSuperuser bool    `json:"is_superuser"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	BirthDate   *string `json:"birth_date"`
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

func parseBirthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, validator.NewFieldError("birth_date", "datetime=2006-01-02")
	}
	return &parsed, nil
}

func (s *userService) role(id uint) (*model.Role, error) {
	role, err := s.roleRepo.FindByID(id)
	if err != nil {
		return nil, validator.NewFieldError("role_id", "exists")
	}
	return role, nil
}

func (s *userService) CreateUser(req *CreateUserRequest, actor access.Principal) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if req.IsSuperuser && !actor.IsSuperuser {
		return nil, fmt.Errorf("grant superuser: %w", ErrForbidden)
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.role(req.RoleID)
	if err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		BirthDate:    birthDate,
		RoleID:       &role.ID,
		IsActive:     true,
		IsSuperuser:  req.IsSuperuser,
		TokenVersion: uuid.NewString(),
		Privileges:   role.Privileges,
	}
	user.CreatedBy = actor.Actor()
	user.UpdatedBy = actor.Actor()

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, actor access.Principal) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if req.IsSuperuser != nil && *req.IsSuperuser != user.IsSuperuser && !actor.IsSuperuser {
		return nil, fmt.Errorf("change superuser flag: %w", ErrForbidden)
	}

	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil && existing.ID != user.ID {
		return nil, ErrEmailExists
	}

	role, err := s.role(req.RoleID)
	if err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	roleChanged := user.RoleID == nil || *user.RoleID != role.ID
	deactivated := user.IsActive && req.IsActive != nil && !*req.IsActive
	passwordChanged := req.Password != nil && *req.Password != ""

	user.Email = req.Email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.BirthDate = birthDate
	user.RoleID = &role.ID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	user.UpdatedBy = actor.Actor()

	if passwordChanged {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	// Deactivation and a new password both end the open session
	if deactivated || passwordChanged {
		if _, err := s.userRepo.RotateSession(userID, nil); err != nil {
			return nil, fmt.Errorf("end session: %w", err)
		}
	}
	// Role change resets privileges to the role's defaults
	if roleChanged {
		if err := s.userRepo.UpdatePrivileges(userID, role.Privileges); err != nil {
			return nil, fmt.Errorf("update privileges: %w", err)
		}
	}
	return s.userRepo.FindByID(userID)
}

// DeleteUser refuses to remove the caller's own account.
func (s *userService) DeleteUser(userID uuid.UUID, actor access.Principal) error {
	if userID == actor.UserID {
		return fmt.Errorf("delete own account: %w", ErrForbidden)
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(userID)
}

func (s *userService) UpdateUserPrivileges(userID uuid.UUID, privilegeCodes []string, actor access.Principal) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	privileges, err := s.privilegeRepo.FindByCodes(privilegeCodes)
	if err != nil {
		return nil, fmt.Errorf("find privileges: %w", err)
	}
	if len(privileges) != len(privilegeCodes) {
		return nil, validator.NewFieldError("privileges", "oneof")
	}

	if err := s.userRepo.UpdatePrivileges(userID, privileges); err != nil {
		return nil, fmt.Errorf("update privileges: %w", err)
	}

	user.UpdatedBy = actor.Actor()
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}
