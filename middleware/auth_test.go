package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("test-jwt-key")

// makeToken выпускает тестовый JWT с заданной ролью
func makeToken(t *testing.T, key []byte, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   "test@example.com",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	var gotID uint
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotID, _, err = GetUserFromContext(r)
		if err != nil {
			t.Errorf("GetUserFromContext failed: %v", err)
		}
		gotRole, _ = r.Context().Value("role").(string)
	})

	req := httptest.NewRequest("GET", "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testKey, 42, "admin"))
	rr := httptest.NewRecorder()

	AuthMiddleware(testKey)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d", rr.Code, http.StatusOK)
	}
	if gotID != 42 {
		t.Errorf("user_id: got %d want 42", gotID)
	}
	if gotRole != "admin" {
		t.Errorf("role: got %s want admin", gotRole)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})
	handler := AuthMiddleware(testKey)(next)

	cases := []struct {
		name  string
		token string
	}{
		{"без заголовка", ""},
		{"мусор вместо токена", "Bearer not-a-token"},
		{"чужой ключ подписи", "Bearer " + makeToken(t, []byte("forged-key"), 1, "user")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/accounts", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"user_id": uint(1),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()

	AuthMiddleware(testKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for expired token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := AuthMiddleware(testKey)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	// Обычному пользователю доступ запрещен
	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testKey, 1, "user"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("user status: got %d want %d", rr.Code, http.StatusForbidden)
	}

	// Администратор проходит
	req = httptest.NewRequest("GET", "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, testKey, 2, "admin"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("admin status: got %d want %d", rr.Code, http.StatusOK)
	}
}
