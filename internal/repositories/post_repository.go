package repositories

import (
	"errors"

	"github.com/chamadopro/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPostByID(id uint) (*models.Post, error)
	ListPosts(filter models.PostFilter, page, limit int) ([]models.Post, int64, error)
	UpdatePost(post *models.Post) error
	UpdateStatus(postID uint, from, to models.PostStatus) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost creates a new post
func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	if post.Status == "" {
		post.Status = models.PostActive
	}
	return r.db.Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// ListPosts retrieves posts matching the filter with pagination
func (r *PostgresPostRepository) ListPosts(filter models.PostFilter, page, limit int) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	q := r.db.Model(&models.Post{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}

	q.Count(&total)

	offset := (page - 1) * limit
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, total, err
}

// UpdatePost saves mutable post fields
func (r *PostgresPostRepository) UpdatePost(post *models.Post) error {
	return r.db.Save(post).Error
}

// UpdateStatus moves a post from one status to another. The previous status
// is part of the WHERE clause so a stale caller loses the race cleanly.
func (r *PostgresPostRepository) UpdateStatus(postID uint, from, to models.PostStatus) error {
	res := r.db.Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}
