package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/config"
)

const (
	AccessKeyHeader = "X-Access-Key"
	SecretKeyHeader = "X-Secret-Key"
)

type AuthMiddleware struct {
	accessKey string
	secretKey string
}

// NewAuthMiddleware checks the static key pair from cfg. An empty pair lets every request through.
func NewAuthMiddleware(cfg config.AuthConf) *AuthMiddleware {
	return &AuthMiddleware{accessKey: cfg.AccessKey, secretKey: cfg.SecretKey}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.accessKey == "" && m.secretKey == "" {
			next(w, r)
			return
		}
		access := r.Header.Get(AccessKeyHeader)
		secret := r.Header.Get(SecretKeyHeader)
		if !equal(access, m.accessKey) || !equal(secret, m.secretKey) {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			return
		}
		next(w, r)
	}
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
