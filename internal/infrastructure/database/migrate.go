package database

import (
	"fmt"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/pkg/logger"
)

// Migration modes selected by DB_MIGRATION_MODE
const (
	MigrationAuto  = "auto"
	MigrationAlter = "alter"
	MigrationDrop  = "drop"
)

// Migrate brings the schema in line with the models
func Migrate(db *gorm.DB, mode string) error {
	switch mode {
	case MigrationDrop:
		logger.Warning("running in drop mode, every table will be dropped and recreated")
		if err := dropTables(db); err != nil {
			return err
		}
		return AutoMigrate(db)
	case MigrationAlter:
		logger.Info("running in alter mode, stale columns will be dropped")
		if err := AutoMigrate(db); err != nil {
			return err
		}
		return dropStaleColumns(db)
	default:
		logger.Info("running in auto mode, only new tables and columns are added")
		return AutoMigrate(db)
	}
}

// AutoMigrate creates missing tables, columns, indexes and constraints
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info("database migration completed")
	return nil
}

func dropTables(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db.Exec("SET FOREIGN_KEY_CHECKS = 0")
		defer db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	}

	all := models.All()
	// reverse order so dependents go first
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}

// dropStaleColumns removes columns that no longer exist on the models
func dropStaleColumns(db *gorm.DB) error {
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return err
		}
		columns, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return err
		}
		for _, col := range columns {
			if _, ok := stmt.Schema.FieldsByDBName[col.Name()]; ok {
				continue
			}
			logger.Warning("dropping stale column %s.%s", stmt.Schema.Table, col.Name())
			if err := db.Migrator().DropColumn(model, col.Name()); err != nil {
				return fmt.Errorf("drop column %s.%s: %w", stmt.Schema.Table, col.Name(), err)
			}
		}
	}
	return nil
}
