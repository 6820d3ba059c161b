package db

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumart/edumart/biz/dal/model"
)

// SetupTestDB creates an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.Resource{}); err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	return db
}

// CleanupTestDB closes the database connection.
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close DB: %v", err)
	}
}

// CreateTestResource inserts a placeholder resource row for a seller.
func CreateTestResource(t *testing.T, db *gorm.DB, sellerID int64) *model.Resource {
	t.Helper()
	dao := NewResourceDAO()
	res := &model.Resource{
		SellerID:   sellerID,
		Title:      "Test resource",
		Kind:       "pdf",
		IsPublic:   false,
		IsApproved: false,
		Status:     model.StatusPending,
	}
	if err := dao.Create(context.Background(), db, res); err != nil {
		t.Fatalf("Failed to create test resource: %v", err)
	}
	return res
}
