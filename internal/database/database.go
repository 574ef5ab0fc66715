package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) CreateUser(user *entities.User) error {
	return d.DB.Create(user).Error
}

func (d *Database) GetUserByID(id string) (*entities.User, error) {
	var user entities.User
	err := d.DB.First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := d.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkGoogleAccount attaches a Google subject id to an existing account.
// This is the only mutation users ever receive.
func (d *Database) LinkGoogleAccount(userID, googleID string) error {
	return d.DB.Model(&entities.User{}).Where("id = ?", userID).
		Update("google_id", googleID).Error
}

func (d *Database) CreateBook(book *entities.Book) error {
	return d.DB.Create(book).Error
}

// GetBookForUser fetches one book, scoped to the owner. A book that exists
// but belongs to someone else is indistinguishable from one that does not
// exist.
func (d *Database) GetBookForUser(id, userID string) (*entities.Book, error) {
	var book entities.Book
	err := d.DB.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (d *Database) ListBooksForUser(userID string) ([]entities.Book, error) {
	var books []entities.Book
	err := d.DB.Where("user_id = ?", userID).Order("added_at DESC").Find(&books).Error
	return books, err
}

func (d *Database) DeleteBook(id, userID string) error {
	result := d.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// UpdateProgress overwrites position, percentage and the last-read timestamp
// unconditionally. Last write wins; there is no monotonicity check.
func (d *Database) UpdateProgress(id, userID, position string, percentage float64) error {
	now := time.Now()
	result := d.DB.Model(&entities.Book{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"progress":            position,
			"progress_percentage": percentage,
			"last_read":           now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}
