package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationPruneDuplicateShareLinks = "2026-08-12_prune_duplicate_share_links"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPruneDuplicateShareLinks, apply: pruneDuplicateShareLinks},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// pruneDuplicateShareLinks keeps the oldest link for each owner and
// content tuple. Earlier releases could insert a second row for the
// same tuple under concurrent saves.
func pruneDuplicateShareLinks(db *gorm.DB) error {
	const statement = `
		DELETE FROM shared_links WHERE link_id NOT IN (
			SELECT link_id FROM (
				SELECT link_id,
					ROW_NUMBER() OVER (
						PARTITION BY user_id, content_type, IFNULL(content_id, '')
						ORDER BY created_at, link_id
					) AS row_rank
				FROM shared_links
			)
			WHERE row_rank = 1
		);`
	return db.Exec(statement).Error
}
