package entities

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account that owns books. At least one of PasswordHash or
// GoogleID is always set: local signups get a hash, federated logins get a
// Google subject id, and a password account that later signs in with Google
// ends up with both.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"` // empty for Google-only accounts
	GoogleID     string    `gorm:"index;size:64" json:"-"`
	Name         string    `gorm:"size:255" json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Book is the server-side record of an uploaded EPUB. The file itself lives
// on disk under FilePath; Progress carries the reader's opaque position token.
type Book struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	UserID             string     `gorm:"index;size:36" json:"user_id"`
	Title              string     `gorm:"index;size:512" json:"title"`
	Author             string     `gorm:"size:256" json:"author"`
	Cover              string     `json:"cover,omitempty"` // base64 data URL or external URL
	FilePath           string     `gorm:"size:1024" json:"-"`
	AddedAt            time.Time  `gorm:"index" json:"added_at"`
	LastRead           *time.Time `json:"last_read,omitempty"`
	Progress           string     `gorm:"size:1024" json:"progress,omitempty"`
	ProgressPercentage float64    `json:"progress_percentage"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

// Highlight annotates a span of text. The range token is the identity:
// lookups and removals key on it, relying on the renderer returning one
// canonical token per distinct text range.
type Highlight struct {
	Range     string    `json:"range"`
	Color     string    `json:"color"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark marks a single position. Identity is the position token.
type Bookmark struct {
	Position  string    `json:"position"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// LocalBook is the client-local variant of Book used when no account is
// signed in: the entire book, raw EPUB bytes included, plus its annotations,
// stored as one document. No relational constraints apply to it.
type LocalBook struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Author             string      `json:"author"`
	Cover              string      `json:"cover,omitempty"`
	Data               []byte      `json:"data"`
	AddedAt            time.Time   `json:"added_at"`
	LastRead           *time.Time  `json:"last_read,omitempty"`
	Progress           string      `json:"progress,omitempty"`
	ProgressPercentage float64     `json:"progress_percentage"`
	Highlights         []Highlight `json:"highlights,omitempty"`
	Bookmarks          []Bookmark  `json:"bookmarks,omitempty"`
}

// LocalBookRow is the sqlite row wrapping one LocalBook document. The
// document is opaque JSON to the storage layer, mirroring a browser
// key-value store: one entry per book id.
type LocalBookRow struct {
	ID      string         `gorm:"primaryKey;size:36"`
	AddedAt time.Time      `gorm:"index"`
	Doc     datatypes.JSON `gorm:"type:json"`
}

func (LocalBookRow) TableName() string {
	return "local_books"
}
