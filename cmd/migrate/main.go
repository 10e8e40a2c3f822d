package main

import (
	"context"
	"flag"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

func main() {
	var logLevel string
	var seed bool
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&seed, "seed", false, "Insert demo catalog data after migrating")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	log.Info("Applying schema migrations",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Schema is up to date")

	if seed {
		if err := seedDemoData(context.Background(), db, log); err != nil {
			log.Fatal("Seeding failed", zap.Error(err))
		}
	}
}

// seedDemoData inserts a demo brand with one branch and a small assigned
// catalog so a fresh environment has something to sync against
func seedDemoData(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormBranchInventoryRepository(db.DB)

	brandID := uuid.New()

	branch, err := catalog.NewBranch(brandID, "BR-001", "Demo Downtown")
	if err != nil {
		return err
	}
	if err := branchRepo.Save(ctx, branch); err != nil {
		return err
	}

	products := []struct {
		code     string
		name     string
		quantity int64
	}{
		{"SKU-001", "Demo Espresso Beans 1kg", 40},
		{"SKU-002", "Demo Filter Papers", 120},
		{"SKU-003", "Demo Ceramic Mug", 3},
	}

	for _, p := range products {
		product, err := catalog.NewProduct(brandID, p.code, p.name)
		if err != nil {
			return err
		}
		if err := productRepo.Save(ctx, product); err != nil {
			return err
		}

		assignment, err := catalog.NewBranchAssignment(branch.ID, product.ID)
		if err != nil {
			return err
		}
		if err := productRepo.AssignToBranch(ctx, assignment); err != nil {
			return err
		}

		record, err := inventory.NewBranchInventoryRecord(brandID, branch.ID, product.ID)
		if err != nil {
			return err
		}
		record.ApplyExternalQuantity(p.quantity)
		if err := record.SetLowStockThreshold(5); err != nil {
			return err
		}
		if err := inventoryRepo.Upsert(ctx, record); err != nil {
			return err
		}
	}

	log.Info("Demo data seeded",
		zap.String("brand_id", brandID.String()),
		zap.String("branch_id", branch.ID.String()),
		zap.Int("products", len(products)),
	)
	return nil
}
