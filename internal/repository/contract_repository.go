package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/dispatch-contracts/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ContractRepository) WithTx(tx *gorm.DB) *ContractRepository {
	return &ContractRepository{db: tx}
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetByNumber(ctx context.Context, number string) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).First(&contract, "contract_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) Save(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Contract{}, "id = ?", id).Error
}

type ContractFilters struct {
	SiteID    *uuid.UUID
	Status    *model.ContractStatus
	ActiveOn  *time.Time
	EndBefore *time.Time
	EndAfter  *time.Time
	Limit     int
	Offset    int
	SortBy    string
	SortDesc  bool
}

var sortableColumns = map[string]struct{}{
	"contract_number":     {},
	"status":              {},
	"dispatch_start_date": {},
	"dispatch_end_date":   {},
	"created_at":          {},
}

func (r *ContractRepository) List(ctx context.Context, filters ContractFilters) ([]model.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Contract{})

	if filters.SiteID != nil {
		query = query.Where("site_id = ?", *filters.SiteID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ActiveOn != nil {
		query = query.Where("dispatch_start_date <= ? AND dispatch_end_date >= ?", *filters.ActiveOn, *filters.ActiveOn)
	}
	if filters.EndBefore != nil {
		query = query.Where("dispatch_end_date <= ?", *filters.EndBefore)
	}
	if filters.EndAfter != nil {
		query = query.Where("dispatch_end_date >= ?", *filters.EndAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if _, ok := sortableColumns[sortBy]; !ok {
		sortBy = "created_at"
	}
	direction := "ASC"
	if filters.SortDesc {
		direction = "DESC"
	}
	query = query.Order(sortBy + " " + direction)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var contracts []model.Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

// MaxSequenceForMonth returns the highest NNNN already issued under the
// given month prefix (e.g. "KOB-202501-"), or 0 when none exists.
// Lexicographic MAX is correct because sequences are zero-padded.
func (r *ContractRepository) MaxSequenceForMonth(ctx context.Context, monthPrefix string) (int, error) {
	var maxNumber *string
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("contract_number LIKE ?", monthPrefix+"%").
		Select("MAX(contract_number)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	if maxNumber == nil || *maxNumber == "" {
		return 0, nil
	}

	suffix := strings.TrimPrefix(*maxNumber, monthPrefix)
	sequence, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, nil
	}
	return sequence, nil
}

// ListActiveAtSite returns the active contracts at a site whose dispatch
// period contains targetDate, earliest start date first. The secondary
// ordering by created_at and id keeps the result deterministic when
// periods coincide.
func (r *ContractRepository) ListActiveAtSite(ctx context.Context, siteID uuid.UUID, targetDate time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, model.ContractStatusActive).
		Where("dispatch_start_date <= ? AND dispatch_end_date >= ?", targetDate, targetDate).
		Order("dispatch_start_date ASC, created_at ASC, id ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// MarkExpired transitions every active contract whose end date has
// passed to EXPIRED in one statement. Safe to repeat: expired contracts
// no longer match the predicate.
func (r *ContractRepository) MarkExpired(ctx context.Context, today, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("status = ? AND dispatch_end_date < ?", model.ContractStatusActive, today).
		Updates(map[string]interface{}{
			"status":     model.ContractStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// ListExpiring returns active contracts ending within [today, limit].
func (r *ContractRepository) ListExpiring(ctx context.Context, today, limit time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND dispatch_end_date >= ? AND dispatch_end_date <= ?", model.ContractStatusActive, today, limit).
		Order("dispatch_end_date ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

type ContractStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	ExpiringSoon int64 `json:"expiring_soon"`
	Expired      int64 `json:"expired"`
	Draft        int64 `json:"draft"`
	TotalWorkers int64 `json:"total_workers"`
}

// Stats aggregates dashboard counts, optionally scoped to one site.
// ExpiringSoon counts active contracts ending within the window.
func (r *ContractRepository) Stats(ctx context.Context, siteID *uuid.UUID, today, expiringLimit time.Time) (*ContractStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'ACTIVE' THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = 'ACTIVE' AND dispatch_end_date >= ? AND dispatch_end_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_soon,
			COALESCE(SUM(CASE WHEN status = 'EXPIRED' THEN 1 ELSE 0 END), 0) AS expired,
			COALESCE(SUM(CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END), 0) AS draft,
			COALESCE(SUM(CASE WHEN status = 'ACTIVE' THEN worker_count ELSE 0 END), 0) AS total_workers
		FROM contracts
	`
	args := []interface{}{today, expiringLimit}
	if siteID != nil {
		query += " WHERE site_id = ?"
		args = append(args, *siteID)
	}

	var stats ContractStats
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
