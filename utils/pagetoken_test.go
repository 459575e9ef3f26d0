package utils

import (
	"errors"
	"testing"
	"time"
)

func TestPageTokenRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 123456789, time.UTC)
	id := "550e8400-e29b-41d4-a716-446655440000"
	key := "secret-key"

	token := EncodePageToken(createdAt, id, key)

	gotTime, gotID, err := DecodePageToken(token, key)
	if err != nil {
		t.Fatalf("DecodePageToken failed: %v", err)
	}
	if !gotTime.Equal(createdAt) {
		t.Errorf("createdAt: got %v want %v", gotTime, createdAt)
	}
	if gotID != id {
		t.Errorf("id: got %s want %s", gotID, id)
	}
}

func TestPageTokenWrongKey(t *testing.T) {
	token := EncodePageToken(time.Now(), "some-id", "key-one")

	// Токен, подписанный другим ключом, отклоняется
	if _, _, err := DecodePageToken(token, "key-two"); !errors.Is(err, ErrBadPageToken) {
		t.Errorf("expected ErrBadPageToken, got %v", err)
	}
}

func TestPageTokenTampered(t *testing.T) {
	cases := []string{
		"",
		"not-base64!!!",
		"bm90LWEtdG9rZW4", // base64 без разделителей
		EncodePageToken(time.Now(), "id", "key") + "x",
	}

	for _, token := range cases {
		if _, _, err := DecodePageToken(token, "key"); !errors.Is(err, ErrBadPageToken) {
			t.Errorf("token %q: expected ErrBadPageToken, got %v", token, err)
		}
	}
}
