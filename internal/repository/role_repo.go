package repository

import (
	"go-accounting/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	Create(role *model.Role) error
	SeedDefaults() error
	AssignDefaultPrivileges(all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(role *model.Role) error {
	return r.db.Create(role).Error
}

// SeedDefaults creates the default roles that don't exist yet
func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		role := defaultRole
		if err := r.db.Where(model.Role{Code: role.Code}).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// AssignDefaultPrivileges gives each role without privileges the subset of
// all that the role grants. Roles edited by an admin keep their set.
func (r *roleRepo) AssignDefaultPrivileges(all []model.Privilege) error {
	roles, err := r.FindAll()
	if err != nil {
		return err
	}
	for i := range roles {
		role := &roles[i]
		if len(role.Privileges) > 0 {
			continue
		}
		granted := []model.Privilege{}
		for _, p := range all {
			if role.Grants(p.Code) {
				granted = append(granted, p)
			}
		}
		if err := r.db.Model(role).Association("Privileges").Replace(granted); err != nil {
			return err
		}
	}
	return nil
}
