package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/newsboy-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureSummaryIndexes(db)
}

// EnsureSummaryIndexes adds the lookup indexes gorm tags cannot express. The
// statements are valid for both postgres and sqlite.
func EnsureSummaryIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_summary_source_source_id", `CREATE INDEX IF NOT EXISTS idx_summary_source_source_id ON summary_source(source_id);`},
		{"idx_summary_user_created_at", `CREATE INDEX IF NOT EXISTS idx_summary_user_created_at ON summary(user_id, created_at);`},
		{"idx_source_user_created_at", `CREATE INDEX IF NOT EXISTS idx_source_user_created_at ON source(user_id, created_at);`},
		{"idx_summary_template_user_created_at", `CREATE INDEX IF NOT EXISTS idx_summary_template_user_created_at ON summary_template(user_id, created_at);`},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
