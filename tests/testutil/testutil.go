package testutil

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a private in-memory sqlite database with every model migrated.
// A single connection is shared, so concurrent transactions run one after another.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t *testing.T, db *gorm.DB, name string, role models.Role) models.User {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|" + uuid.NewString(),
		Name:    name,
		Email:   uuid.NewString() + "@example.com",
		Phone:   "9000000000",
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateSHG inserts an SHG owned by a fresh shg user and returns both
func CreateSHG(t *testing.T, db *gorm.DB, name string, status models.SHGStatus) (models.User, models.SHG) {
	t.Helper()

	owner := CreateUser(t, db, name+" Operator", models.RoleSHG)
	shg := models.SHG{
		OwnerUserID:        owner.ID,
		ShgName:            name,
		RegistrationNumber: "REG-" + uuid.NewString()[:8],
		Rating:             4.5,
		Status:             status,
	}
	if err := db.Create(&shg).Error; err != nil {
		t.Fatalf("Failed to create SHG: %v", err)
	}
	return owner, shg
}
