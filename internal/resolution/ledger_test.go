package resolution_test

import (
	"testing"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/handler"
	"github.com/Maderside/PropertyManagementSystem/internal/model"
	"github.com/Maderside/PropertyManagementSystem/internal/resolution"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.TransactionResolution{},
		&model.RequestResolution{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role model.Role) model.User {
	user := model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestAddSetsResolvedAtOnlyWhenResolved(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	user := createUser(t, db, "alice", model.RoleTenant)

	id, err := ledger.Add(1, user.ID, resolution.StatusPending)
	assert.NoError(t, err)
	assert.NotZero(t, id)

	var pending model.TransactionResolution
	assert.NoError(t, db.First(&pending, id).Error)
	assert.Equal(t, resolution.StatusPending, pending.Status)
	assert.Nil(t, pending.ResolvedAt)

	id2, err := ledger.Add(2, user.ID, resolution.StatusResolved)
	assert.NoError(t, err)

	var resolved model.TransactionResolution
	assert.NoError(t, db.First(&resolved, id2).Error)
	assert.Equal(t, resolution.StatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.WithinDuration(t, time.Now().UTC(), *resolved.ResolvedAt, time.Minute)
}

func TestAddRejectsInvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	user := createUser(t, db, "alice", model.RoleTenant)

	_, err := ledger.Add(1, user.ID, resolution.Status("done"))
	assert.ErrorIs(t, err, resolution.ErrInvalidStatus)

	var count int64
	db.Model(&model.TransactionResolution{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAddDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	user := createUser(t, db, "alice", model.RoleTenant)

	_, err := ledger.Add(1, user.ID, resolution.StatusPending)
	assert.NoError(t, err)

	_, err = ledger.Add(1, user.ID, resolution.StatusResolved)
	assert.ErrorIs(t, err, resolution.ErrAlreadyExists)

	// The first row is untouched
	var rows []model.TransactionResolution
	db.Find(&rows)
	assert.Len(t, rows, 1)
	assert.Equal(t, resolution.StatusPending, rows[0].Status)
}

func TestAddUserVerification(t *testing.T) {
	db := setupTestDB(t)
	transactionLedger := handler.NewTransactionLedger(db)
	requestLedger := handler.NewRequestLedger(db)

	// The transaction ledger verifies the target user exists
	_, err := transactionLedger.Add(1, 9999, resolution.StatusPending)
	assert.ErrorIs(t, err, resolution.ErrUserNotFound)

	// The request ledger does not
	id, err := requestLedger.Add(1, 9999, resolution.StatusPending)
	assert.NoError(t, err)
	assert.NotZero(t, id)
}

func TestToggleFlipsStatus(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	user := createUser(t, db, "alice", model.RoleTenant)

	id, err := ledger.Add(1, user.ID, resolution.StatusPending)
	assert.NoError(t, err)

	status, toggledID, err := ledger.Toggle(1, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, resolution.StatusResolved, status)
	assert.Equal(t, id, toggledID)

	var row model.TransactionResolution
	assert.NoError(t, db.First(&row, id).Error)
	assert.Equal(t, resolution.StatusResolved, row.Status)
	assert.NotNil(t, row.ResolvedAt)

	// Toggling again restores pending and clears the timestamp. Re-read
	// into a fresh struct: a NULL column leaves a stale pointer untouched.
	status, _, err = ledger.Toggle(1, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, resolution.StatusPending, status)

	var restored model.TransactionResolution
	assert.NoError(t, db.First(&restored, id).Error)
	assert.Equal(t, resolution.StatusPending, restored.Status)
	assert.Nil(t, restored.ResolvedAt)
}

func TestToggleMissing(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)

	_, _, err := ledger.Toggle(1, 42)
	assert.ErrorIs(t, err, resolution.ErrNotFound)
}

func TestRemove(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	user := createUser(t, db, "alice", model.RoleTenant)

	_, err := ledger.Add(1, user.ID, resolution.StatusPending)
	assert.NoError(t, err)

	assert.NoError(t, ledger.Remove(1, user.ID))

	var count int64
	db.Model(&model.TransactionResolution{}).Count(&count)
	assert.Equal(t, int64(0), count)

	assert.ErrorIs(t, ledger.Remove(1, user.ID), resolution.ErrNotFound)
}

func TestListWithUsers(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	alice := createUser(t, db, "alice", model.RoleTenant)
	bob := createUser(t, db, "bob", model.RoleLandlord)

	_, err := ledger.ListWithUsers(1)
	assert.ErrorIs(t, err, resolution.ErrNotFound)

	_, err = ledger.Add(1, alice.ID, resolution.StatusPending)
	assert.NoError(t, err)
	_, err = ledger.Add(1, bob.ID, resolution.StatusResolved)
	assert.NoError(t, err)
	_, err = ledger.Add(2, alice.ID, resolution.StatusPending)
	assert.NoError(t, err)

	entries, err := ledger.ListWithUsers(1)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)

	byUser := map[uint]resolution.Entry{}
	for _, e := range entries {
		byUser[e.UserID] = e
	}
	assert.Equal(t, "alice", byUser[alice.ID].UserName)
	assert.Equal(t, "tenant", byUser[alice.ID].UserRole)
	assert.Equal(t, resolution.StatusPending, byUser[alice.ID].Status)
	assert.Equal(t, "bob", byUser[bob.ID].UserName)
	assert.Equal(t, "landlord", byUser[bob.ID].UserRole)
	assert.Equal(t, resolution.StatusResolved, byUser[bob.ID].Status)
	assert.NotNil(t, byUser[bob.ID].ResolvedAt)
}

func TestFullyResolved(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	alice := createUser(t, db, "alice", model.RoleTenant)
	bob := createUser(t, db, "bob", model.RoleLandlord)

	// Zero resolutions is never fully resolved
	done, err := ledger.FullyResolved(1)
	assert.NoError(t, err)
	assert.False(t, done)

	_, err = ledger.Add(1, alice.ID, resolution.StatusResolved)
	assert.NoError(t, err)
	_, err = ledger.Add(1, bob.ID, resolution.StatusPending)
	assert.NoError(t, err)

	done, err = ledger.FullyResolved(1)
	assert.NoError(t, err)
	assert.False(t, done)

	_, _, err = ledger.Toggle(1, bob.ID)
	assert.NoError(t, err)

	done, err = ledger.FullyResolved(1)
	assert.NoError(t, err)
	assert.True(t, done)
}

func TestDeleteForParent(t *testing.T) {
	db := setupTestDB(t)
	ledger := handler.NewTransactionLedger(db)
	alice := createUser(t, db, "alice", model.RoleTenant)
	bob := createUser(t, db, "bob", model.RoleLandlord)

	_, err := ledger.Add(1, alice.ID, resolution.StatusPending)
	assert.NoError(t, err)
	_, err = ledger.Add(1, bob.ID, resolution.StatusResolved)
	assert.NoError(t, err)
	_, err = ledger.Add(2, alice.ID, resolution.StatusPending)
	assert.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return ledger.DeleteForParent(tx, 1)
	})
	assert.NoError(t, err)

	var count int64
	db.Model(&model.TransactionResolution{}).Count(&count)
	assert.Equal(t, int64(1), count)

	var remaining model.TransactionResolution
	assert.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, uint(2), remaining.TransactionID)
}
