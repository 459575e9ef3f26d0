package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint возвращает hex-представление SHA-256 от канонического
// представления параметров операции. Используется для сверки повторных
// запросов по ключу идемпотентности: одинаковые параметры дают одинаковый
// отпечаток.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // разделитель, чтобы ("ab","c") != ("a","bc")
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HMACSign подписывает данные ключом (HMAC-SHA256, hex)
func HMACSign(data, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACVerify проверяет подпись, полученную HMACSign
func HMACVerify(data, key, signature string) bool {
	expected := HMACSign(data, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}
