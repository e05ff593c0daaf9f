package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AnTengye/fleetdocs/model"
)

func setupTestRegistry(t *testing.T) (*gorm.DB, *GormRegistry) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db, NewRegistry(db)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("Failed to seed row: %v", err)
	}
}

func TestFindByIdentifierSuffix(t *testing.T) {
	db, registry := setupTestRegistry(t)
	mustCreate(t, db, &model.Vehicle{PlateNo: "34ABC123", Brand: "Mercedes", ChassisNo: "WDB9634031L123456"})
	mustCreate(t, db, &model.Vehicle{PlateNo: "06XYZ789", Brand: "Ford", ChassisNo: "NM0KXXTTFK654321"})

	vehicles, err := registry.FindByIdentifierSuffix(context.Background(), "123456")
	if err != nil {
		t.Fatalf("FindByIdentifierSuffix failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].PlateNo != "34ABC123" {
		t.Errorf("Expected the Mercedes only, got %+v", vehicles)
	}
}

func TestFindByIdentifierSuffixLowercaseStored(t *testing.T) {
	db, registry := setupTestRegistry(t)
	mustCreate(t, db, &model.Vehicle{PlateNo: "34ABC123", Brand: "Mercedes", ChassisNo: "wdb9634031labcdef"})

	// Lookup input is normalized uppercase; a row registered with lowercase
	// chassis characters must still match.
	vehicles, err := registry.FindByIdentifierSuffix(context.Background(), "ABCDEF")
	if err != nil {
		t.Fatalf("FindByIdentifierSuffix failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].PlateNo != "34ABC123" {
		t.Errorf("Expected the lowercase-stored vehicle, got %+v", vehicles)
	}
}

func TestFindByIdentifierSuffixEmpty(t *testing.T) {
	db, registry := setupTestRegistry(t)
	mustCreate(t, db, &model.Vehicle{PlateNo: "34ABC123", ChassisNo: "WDB9634031L123456"})

	vehicles, err := registry.FindByIdentifierSuffix(context.Background(), "")
	if err != nil {
		t.Fatalf("FindByIdentifierSuffix failed: %v", err)
	}
	if len(vehicles) != 0 {
		t.Errorf("An empty suffix must match nothing, got %d vehicles", len(vehicles))
	}
}

func TestFindActiveContractPicksNewest(t *testing.T) {
	db, registry := setupTestRegistry(t)
	vehicle := &model.Vehicle{PlateNo: "34ABC123", ChassisNo: "WDB9634031L123456"}
	mustCreate(t, db, vehicle)

	old := &model.Contract{VehicleID: vehicle.ID, Status: model.ContractStatusActive, Insurer: "OldCo"}
	mustCreate(t, db, old)
	db.Model(old).Update("created_at", time.Now().Add(-48*time.Hour))
	mustCreate(t, db, &model.Contract{VehicleID: vehicle.ID, Status: "expired", Insurer: "GoneCo"})
	newest := &model.Contract{VehicleID: vehicle.ID, Status: model.ContractStatusActive, Insurer: "NewCo"}
	mustCreate(t, db, newest)

	contract, err := registry.FindActiveContract(context.Background(), vehicle.ID)
	if err != nil {
		t.Fatalf("FindActiveContract failed: %v", err)
	}
	if contract == nil || contract.Insurer != "NewCo" {
		t.Errorf("Expected the newest active contract, got %+v", contract)
	}
}

func TestFindActiveContractNone(t *testing.T) {
	db, registry := setupTestRegistry(t)
	vehicle := &model.Vehicle{PlateNo: "34ABC123", ChassisNo: "WDB9634031L123456"}
	mustCreate(t, db, vehicle)
	mustCreate(t, db, &model.Contract{VehicleID: vehicle.ID, Status: "expired"})

	contract, err := registry.FindActiveContract(context.Background(), vehicle.ID)
	if err != nil {
		t.Fatalf("FindActiveContract failed: %v", err)
	}
	if contract != nil {
		t.Errorf("Expected nil when no active contract exists, got %+v", contract)
	}
}

func TestUpdateVehicleBrand(t *testing.T) {
	db, registry := setupTestRegistry(t)
	vehicle := &model.Vehicle{PlateNo: "34ABC123", Brand: "-", ChassisNo: "WDB9634031L123456"}
	mustCreate(t, db, vehicle)

	if err := registry.UpdateVehicleBrand(context.Background(), vehicle.ID, "Mercedes"); err != nil {
		t.Fatalf("UpdateVehicleBrand failed: %v", err)
	}

	reloaded, err := registry.GetVehicle(context.Background(), vehicle.ID)
	if err != nil {
		t.Fatalf("GetVehicle failed: %v", err)
	}
	if reloaded.Brand != "Mercedes" {
		t.Errorf("Expected brand Mercedes, got %s", reloaded.Brand)
	}
}

func TestListVehiclesSearch(t *testing.T) {
	db, registry := setupTestRegistry(t)
	mustCreate(t, db, &model.Vehicle{PlateNo: "34ABC123", Brand: "Mercedes", ChassisNo: "WDB9634031L123456"})
	mustCreate(t, db, &model.Vehicle{PlateNo: "06XYZ789", Brand: "Ford", ChassisNo: "NM0KXXTTFK654321"})

	all, err := registry.ListVehicles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListVehicles failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 vehicles, got %d", len(all))
	}
	if all[0].PlateNo != "06XYZ789" {
		t.Errorf("Expected plate ordering, got %s first", all[0].PlateNo)
	}

	fords, err := registry.ListVehicles(context.Background(), "Ford")
	if err != nil {
		t.Fatalf("ListVehicles failed: %v", err)
	}
	if len(fords) != 1 || fords[0].PlateNo != "06XYZ789" {
		t.Errorf("Expected the Ford only, got %+v", fords)
	}
}

func TestListVehiclesWithContracts(t *testing.T) {
	db, registry := setupTestRegistry(t)
	vehicle := &model.Vehicle{PlateNo: "34ABC123", Brand: "Mercedes", ChassisNo: "WDB9634031L123456"}
	mustCreate(t, db, vehicle)
	mustCreate(t, db, &model.Contract{VehicleID: vehicle.ID, Status: model.ContractStatusActive, Insurer: "Axa"})
	mustCreate(t, db, &model.Contract{VehicleID: vehicle.ID, Status: "expired", Insurer: "GoneCo"})

	vehicles, err := registry.ListVehiclesWithContracts(context.Background())
	if err != nil {
		t.Fatalf("ListVehiclesWithContracts failed: %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("Expected 1 vehicle, got %d", len(vehicles))
	}
	if len(vehicles[0].Contracts) != 1 || vehicles[0].Contracts[0].Insurer != "Axa" {
		t.Errorf("Expected only the active contract preloaded, got %+v", vehicles[0].Contracts)
	}
}
