package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/invitation/domain"
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

func (r *repository) Create(ctx context.Context, invitation domain.RecipeBookInvitation) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO recipe_book_invitations (id, book_id, email, role, token, status, invited_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		invitation.ID,
		invitation.BookID,
		invitation.Email,
		invitation.Role,
		invitation.Token,
		invitation.Status,
		invitation.InvitedBy,
		invitation.CreatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.RecipeBookInvitation, error) {
	var invitation domain.RecipeBookInvitation
	err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) GetPendingByToken(ctx context.Context, token string) (*domain.RecipeBookInvitation, error) {
	var invitation domain.RecipeBookInvitation
	err := r.db.WithContext(ctx).
		First(&invitation, "token = ? AND status = ?", token, domain.StatusPending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ListByBook(ctx context.Context, bookID snowflake.ID) ([]domain.RecipeBookInvitation, error) {
	var invitations []domain.RecipeBookInvitation
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

func (r *repository) MarkAccepted(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Exec(
		`UPDATE recipe_book_invitations
		 SET status = ?, accepted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		domain.StatusAccepted,
		id,
		domain.StatusPending,
	)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) (int64, error) {
	tx := r.db.WithContext(ctx).Exec(`DELETE FROM recipe_book_invitations WHERE id = ?`, id)
	return tx.RowsAffected, tx.Error
}
