package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashPin hashes a staff PIN using bcrypt
func HashPin(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), 10)
	return string(bytes), err
}

// CheckPinHash compares a PIN with a stored hash
func CheckPinHash(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}

// GenerateDeviceToken creates the JWT a device presents when dialing
// the cloud endpoint or registering with the LAN host. Returns "" when
// no secret is configured; the transports then dial without a token.
func GenerateDeviceToken(deviceID, deviceType, tenantID, secret string) (string, error) {
	if secret == "" {
		return "", nil
	}

	claims := jwt.MapClaims{
		"id":     deviceID,
		"device": deviceType,
		"tenant": tenantID,
		"type":   "device_sync",
		"exp":    time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseDeviceToken validates a device token and returns its claims
func ParseDeviceToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid device token")
	}
	if claims["type"] != "device_sync" {
		return nil, fmt.Errorf("wrong token type")
	}
	return claims, nil
}
