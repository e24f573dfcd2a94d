package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/book/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateBook(ctx context.Context, book domain.RecipeBook) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO recipe_books (id, owner_id, name, slug, description, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.OwnerID,
		book.Name,
		book.Slug,
		book.Description,
		book.IsPublic,
		book.CreatedAt,
		book.CreatedAt,
	).Error
}

func (r *repository) GetBook(ctx context.Context, id snowflake.ID) (*domain.RecipeBook, error) {
	var book domain.RecipeBook
	err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repository) UpdateBook(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.RecipeBook{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *repository) DeleteBook(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM recipe_books WHERE id = ?`, id).Error
}

func (r *repository) ListBooksByUser(ctx context.Context, userID snowflake.ID) ([]domain.BookListItem, error) {
	var items []domain.BookListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT b.id, b.name, b.description, b.is_public, 'owner' AS role,
		        (SELECT COUNT(*) FROM recipes r WHERE r.book_id = b.id) AS recipe_count,
		        b.created_at
		 FROM recipe_books b
		 WHERE b.owner_id = ?
		 UNION ALL
		 SELECT b.id, b.name, b.description, b.is_public, m.role,
		        (SELECT COUNT(*) FROM recipes r WHERE r.book_id = b.id) AS recipe_count,
		        b.created_at
		 FROM recipe_books b
		 JOIN recipe_book_members m ON m.book_id = b.id
		 WHERE m.user_id = ?
		 ORDER BY created_at ASC`,
		userID,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) ListMembers(ctx context.Context, bookID snowflake.ID) ([]domain.MemberListItem, error) {
	var items []domain.MemberListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.id, m.user_id, m.role, u.display_name, u.email, m.created_at
		 FROM recipe_book_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.book_id = ?
		 ORDER BY m.created_at ASC`,
		bookID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.RecipeBookMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO recipe_book_members (id, book_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.BookID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repository) RemoveMember(ctx context.Context, bookID snowflake.ID, userID snowflake.ID) (int64, error) {
	tx := r.db.WithContext(ctx).Exec(
		`DELETE FROM recipe_book_members WHERE book_id = ? AND user_id = ?`,
		bookID,
		userID,
	)
	return tx.RowsAffected, tx.Error
}
