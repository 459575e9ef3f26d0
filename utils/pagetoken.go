package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Непрозрачный токен страницы для курсорной пагинации журнала операций.
// Токен кодирует позицию (created_at, id) последней выданной записи и
// подписывается HMAC, чтобы клиент не мог подделать курсор.

var ErrBadPageToken = errors.New("некорректный токен страницы")

// EncodePageToken кодирует позицию курсора в непрозрачный токен
func EncodePageToken(createdAt time.Time, id, key string) string {
	payload := fmt.Sprintf("%d|%s", createdAt.UnixNano(), id)
	signed := payload + "|" + HMACSign(payload, key)
	return base64.RawURLEncoding.EncodeToString([]byte(signed))
}

// DecodePageToken разбирает и проверяет токен страницы
func DecodePageToken(token, key string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", ErrBadPageToken
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return time.Time{}, "", ErrBadPageToken
	}

	payload := parts[0] + "|" + parts[1]
	if !HMACVerify(payload, key, parts[2]) {
		return time.Time{}, "", ErrBadPageToken
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || parts[1] == "" {
		return time.Time{}, "", ErrBadPageToken
	}

	return time.Unix(0, nanos), parts[1], nil
}
