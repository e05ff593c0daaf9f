package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnTengye/fleetdocs/model"
	"gorm.io/gorm"
)

// Registry is the pipeline's view of the vehicle and contract store. All
// operations are simple keyed reads and writes; there are no transactions,
// which is why the batch orchestrator processes files sequentially.
type Registry interface {
	GetVehicle(ctx context.Context, id uint) (*model.Vehicle, error)
	FindByIdentifierSuffix(ctx context.Context, suffix string) ([]model.Vehicle, error)
	FindActiveContract(ctx context.Context, vehicleID uint) (*model.Contract, error)
	InsertContract(ctx context.Context, contract *model.Contract) error
	UpdateContract(ctx context.Context, contract *model.Contract) error
	UpdateVehicleBrand(ctx context.Context, vehicleID uint, brand string) error
	ListVehicles(ctx context.Context, query string) ([]model.Vehicle, error)
	ListVehiclesWithContracts(ctx context.Context) ([]model.Vehicle, error)
}

type GormRegistry struct {
	db *gorm.DB
}

// Make sure we conform to Registry interface
var _ Registry = (*GormRegistry)(nil)

func NewRegistry(db *gorm.DB) *GormRegistry {
	return &GormRegistry{db: db}
}

func (r *GormRegistry) GetVehicle(ctx context.Context, id uint) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load vehicle %d: %w", id, err)
	}
	return &vehicle, nil
}

// FindByIdentifierSuffix returns every vehicle whose chassis number ends
// with the given suffix. The suffix must already be normalized (uppercase
// alphanumerics); the stored side is uppercased in the query so rows
// registered with lowercase characters still match on postgres, where LIKE
// is case-sensitive.
func (r *GormRegistry) FindByIdentifierSuffix(ctx context.Context, suffix string) ([]model.Vehicle, error) {
	if suffix == "" {
		return nil, nil
	}
	var vehicles []model.Vehicle
	err := r.db.WithContext(ctx).
		Where("UPPER(chassis_no) LIKE ?", "%"+suffix).
		Order("id").
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles by suffix: %w", err)
	}
	return vehicles, nil
}

// FindActiveContract returns the most recently created active contract for
// the vehicle, or nil when there is none.
func (r *GormRegistry) FindActiveContract(ctx context.Context, vehicleID uint) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, model.ContractStatusActive).
		Order("created_at DESC").
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active contract: %w", err)
	}
	return &contract, nil
}

func (r *GormRegistry) InsertContract(ctx context.Context, contract *model.Contract) error {
	if err := r.db.WithContext(ctx).Create(contract).Error; err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	return nil
}

func (r *GormRegistry) UpdateContract(ctx context.Context, contract *model.Contract) error {
	if err := r.db.WithContext(ctx).Save(contract).Error; err != nil {
		return fmt.Errorf("failed to update contract %d: %w", contract.ID, err)
	}
	return nil
}

func (r *GormRegistry) UpdateVehicleBrand(ctx context.Context, vehicleID uint, brand string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Vehicle{}).
		Where("id = ?", vehicleID).
		Update("brand", brand).Error
	if err != nil {
		return fmt.Errorf("failed to update vehicle brand: %w", err)
	}
	return nil
}

// ListVehicles returns registered vehicles, optionally filtered by a search
// term matched against plate number, chassis number, or brand.
func (r *GormRegistry) ListVehicles(ctx context.Context, query string) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	tx := r.db.WithContext(ctx).Order("plate_no")
	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("plate_no LIKE ? OR chassis_no LIKE ? OR brand LIKE ?", pattern, pattern, pattern)
	}
	if err := tx.Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

// ListVehiclesWithContracts returns all vehicles with their active contracts
// preloaded, for the results table.
func (r *GormRegistry) ListVehiclesWithContracts(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Contracts", "status = ?", model.ContractStatusActive).
		Order("plate_no").
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles with contracts: %w", err)
	}
	return vehicles, nil
}
