package repository

import (
	"context"
	"errors"

	"ibimina-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryStore is the tenant directory collaborator. The matcher treats it
// as a pure, side-effect-free dependency.
type DirectoryStore interface {
	GroupByCode(ctx context.Context, code string) (*models.Ikimina, error)
	GroupByID(ctx context.Context, id uuid.UUID) (*models.Ikimina, error)
	MemberByCode(ctx context.Context, ikiminaID uuid.UUID, code string) (*models.Member, error)
	MembersByMsisdn(ctx context.Context, saccoID uuid.UUID, msisdn string) ([]models.Member, error)
}

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GroupByCode(ctx context.Context, code string) (*models.Ikimina, error) {
	var group models.Ikimina
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ?", code, models.DirectoryStatusActive).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *DirectoryRepository) GroupByID(ctx context.Context, id uuid.UUID) (*models.Ikimina, error) {
	var group models.Ikimina
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *DirectoryRepository) MemberByCode(ctx context.Context, ikiminaID uuid.UUID, code string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("ikimina_id = ? AND member_code = ? AND status = ?", ikiminaID, code, models.DirectoryStatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *DirectoryRepository) MembersByMsisdn(ctx context.Context, saccoID uuid.UUID, msisdn string) ([]models.Member, error) {
	var members []models.Member
	query := r.db.WithContext(ctx).
		Where("msisdn = ? AND status = ?", msisdn, models.DirectoryStatusActive)
	if saccoID != uuid.Nil {
		query = query.Where("sacco_id = ?", saccoID)
	}
	err := query.Find(&members).Error
	return members, err
}
