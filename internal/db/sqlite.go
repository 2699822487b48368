// Package db keeps the refresh history in a local SQLite database.
package db

import (
	"github.com/c24tools/authhub/internal/db/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&models.RefreshLog{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// RecordRefresh appends one attempt to the history.
func RecordRefresh(gdb *gorm.DB, entry *models.RefreshLog) error {
	return gdb.Create(entry).Error
}

// RecentRefreshes returns the newest history rows, optionally filtered to
// one shop.
func RecentRefreshes(gdb *gorm.DB, shopID string, limit int) ([]models.RefreshLog, error) {
	if limit <= 0 {
		limit = 50
	}
	q := gdb.Order("id DESC").Limit(limit)
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	var logs []models.RefreshLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
