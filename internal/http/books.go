package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Atchyuteswar/ZenReader/internal/database"
	"github.com/Atchyuteswar/ZenReader/internal/entities"
	"github.com/Atchyuteswar/ZenReader/internal/files"
)

// BooksController serves the per-user book CRUD endpoints. Every handler
// scopes its queries to the bearer token's user id.
type BooksController struct {
	db    *database.Database
	files *files.Store
}

func NewBooksController(db *database.Database, fileStore *files.Store) *BooksController {
	return &BooksController{
		db:    db,
		files: fileStore,
	}
}

// Upload stores the multipart file part named "book" plus its metadata.
func (controller *BooksController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("book")
	if err != nil {
		respondBadRequest(c, "No file uploaded")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer src.Close()

	filePath, err := controller.files.Save(fileHeader.Filename, src)
	if err != nil {
		respondInternalError(c, err, "store upload")
		return
	}

	book := &entities.Book{
		ID:       uuid.NewString(),
		UserID:   GetUserID(c),
		Title:    c.PostForm("title"),
		Author:   c.PostForm("author"),
		Cover:    c.PostForm("cover"),
		FilePath: filePath,
		AddedAt:  time.Now(),
	}
	if err := controller.db.CreateBook(book); err != nil {
		if removeErr := controller.files.Remove(filePath); removeErr != nil {
			log.Printf("Failed to remove orphaned upload %s: %v", filePath, removeErr)
		}
		respondInternalError(c, err, "save book metadata")
		return
	}

	c.JSON(http.StatusOK, book)
}

// List returns the caller's books, most recently added first.
func (controller *BooksController) List(c *gin.Context) {
	books, err := controller.db.ListBooksForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, books)
}

// Delete removes the file from storage, then the metadata row. A failed
// unlink keeps the row so the book stays listed and the delete can be
// retried.
func (controller *BooksController) Delete(c *gin.Context) {
	id := c.Param("id")
	userID := GetUserID(c)

	book, err := controller.db.GetBookForUser(id, userID)
	if err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	if err := controller.files.Remove(book.FilePath); err != nil {
		respondInternalError(c, err, "remove book file")
		return
	}
	if err := controller.db.DeleteBook(id, userID); err != nil {
		respondInternalError(c, err, "delete book row")
		return
	}

	respondSuccess(c, "Book deleted")
}

type progressRequest struct {
	Progress           string  `json:"progress"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// UpdateProgress overwrites the stored reading position. Last write wins.
func (controller *BooksController) UpdateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid progress payload")
		return
	}

	err := controller.db.UpdateProgress(c.Param("id"), GetUserID(c), req.Progress, req.ProgressPercentage)
	if err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "update progress")
		return
	}

	respondSuccess(c, "Progress updated")
}

// Download streams the stored file, named after the book title.
func (controller *BooksController) Download(c *gin.Context) {
	book, err := controller.db.GetBookForUser(c.Param("id"), GetUserID(c))
	if err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			respondNotFound(c, "Book")
			return
		}
		respondInternalError(c, err, "download book")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", book.Title+".epub"))
	c.File(book.FilePath)
}
