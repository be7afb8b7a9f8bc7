package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSecureToken возвращает криптографически случайную hex-строку.
// Используется для refresh/reset/confirmation токенов — это bearer-секреты,
// источник только crypto/rand.
func NewSecureToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 64 // 512 бит по умолчанию
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
