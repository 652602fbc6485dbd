package handler

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/Maderside/PropertyManagementSystem/internal/middleware"
	"github.com/Maderside/PropertyManagementSystem/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// currentUser returns the user row loaded by the auth middleware
func currentUser(c echo.Context) (model.User, bool) {
	user, ok := c.Get(middleware.CurrentUserKey).(model.User)
	return user, ok
}

// pathID parses a numeric path parameter
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parseDate parses a YYYY-MM-DD date string
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// ownedProperty loads the property only if it belongs to the given
// landlord. A miss returns gorm.ErrRecordNotFound whether the property is
// absent or owned by someone else.
func ownedProperty(db *gorm.DB, propertyID, landlordID uint) (model.RentalProperty, error) {
	var property model.RentalProperty
	err := db.Where("id = ? AND landlord_id = ?", propertyID, landlordID).First(&property).Error
	return property, err
}

const (
	inviteCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	inviteCodeLength   = 10
)

// generateInviteCode produces a random 10-character alphanumeric code
func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
