package repository

import (
	"stylit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// UpdateCreditsTx loads the user's row under SELECT ... FOR UPDATE inside a
// transaction, calls fn, and applies the column updates fn returns before
// commit. Concurrent calls for the same user serialize on the row lock, so
// two sessions can never both spend the same balance.
func (r *UserRepository) UpdateCreditsTx(userID uint, fn func(u *models.User) (map[string]interface{}, error)) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, userID).Error; err != nil {
			return err
		}
		updates, err := fn(&u)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&u).Updates(updates).Error
	})
}

// SavePhoneIfEmpty persists phone onto the profile only when none is set.
func (r *UserRepository) SavePhoneIfEmpty(userID uint, phone string) error {
	if phone == "" {
		return nil
	}
	return r.db.Model(&models.User{}).
		Where("id = ? AND (phone = '' OR phone IS NULL)", userID).
		Update("phone", phone).Error
}
