package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *AssignmentRepository) WithTx(tx *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.WorkerAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepository) Save(ctx context.Context, assignment *model.WorkerAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.WorkerAssignment{}, "id = ?", id).Error
}

// DeleteByContract removes every assignment of a contract. Used by hard
// deletion, which is only reachable while the contract is a draft.
func (r *AssignmentRepository) DeleteByContract(ctx context.Context, contractID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.WorkerAssignment{}, "contract_id = ?", contractID).Error
}

func (r *AssignmentRepository) GetByContractAndWorker(ctx context.Context, contractID, workerID uuid.UUID) (*model.WorkerAssignment, error) {
	var assignment model.WorkerAssignment
	err := r.db.WithContext(ctx).
		First(&assignment, "contract_id = ? AND worker_id = ?", contractID, workerID).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.WorkerAssignment, error) {
	var assignments []model.WorkerAssignment
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *AssignmentRepository) CountByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WorkerAssignment{}).
		Where("contract_id = ?", contractID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
