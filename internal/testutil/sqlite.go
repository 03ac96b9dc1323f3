package testutil

import (
	"testing"

	"github.com/Skotchmaster/shoppingcart/internal/db"
	"github.com/Skotchmaster/shoppingcart/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with the cart schema.
// A single connection keeps every query on the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return gdb
}

type Fixture struct {
	DB *gorm.DB
}

func (f Fixture) User(t *testing.T, username, role string) models.User {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, f.DB.Create(&u).Error)
	return u
}

func (f Fixture) Product(t *testing.T, name string, price float64) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name + " description", Price: price, Count: 10}
	require.NoError(t, f.DB.Create(&p).Error)
	return p
}

// ProductWithID inserts a product under a fixed id.
func (f Fixture) ProductWithID(t *testing.T, id uint, name string) models.Product {
	t.Helper()
	p := models.Product{ID: id, Name: name, Description: name, Price: 1}
	require.NoError(t, f.DB.Create(&p).Error)
	return p
}
