package repository

import (
	"time"

	"go-accounting/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository stores accounts. Writes that end a session (password,
// deactivation, new login) go through RotateSession so the stored token
// version changes in the same statement.
type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	FindAll() ([]model.User, error)
	Create(user *model.User) error
	Update(user *model.User) error
	Delete(id uuid.UUID) error
	UpdatePrivileges(userID uuid.UUID, privileges []model.Privilege) error
	RotateSession(userID uuid.UUID, changes map[string]interface{}) (string, error)
	Touch(userID uuid.UUID) (time.Time, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) withAccess() *gorm.DB {
	return r.db.Preload("Role").Preload("Privileges")
}

// FindByEmail matches case-insensitively; addresses are stored as typed.
func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.withAccess().Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.withAccess().First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindAll() ([]model.User, error) {
	var users []model.User
	if err := r.withAccess().Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// Update saves the profile columns. Role and privilege links change only
// through RoleID and UpdatePrivileges, session columns through
// RotateSession and Touch.
func (r *userRepo) Update(user *model.User) error {
	return r.db.Omit(clause.Associations, "token_version", "last_seen_at").Save(user).Error
}

func (r *userRepo) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) UpdatePrivileges(userID uuid.UUID, privileges []model.Privilege) error {
	user := model.User{}
	user.ID = userID
	return r.db.Model(&user).Association("Privileges").Replace(privileges)
}

// RotateSession applies changes together with a fresh token version and
// returns that version. Tokens signed with the old one stop working.
func (r *userRepo) RotateSession(userID uuid.UUID, changes map[string]interface{}) (string, error) {
	version := uuid.NewString()
	updates := map[string]interface{}{"token_version": version}
	for k, v := range changes {
		updates[k] = v
	}
	res := r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return version, nil
}

// Touch records activity for the session timeout.
func (r *userRepo) Touch(userID uuid.UUID) (time.Time, error) {
	now := time.Now()
	res := r.db.Model(&model.User{}).Where("id = ?", userID).Update("last_seen_at", now)
	if res.Error != nil {
		return time.Time{}, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return now, nil
}
