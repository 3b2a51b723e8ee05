package middleware

import (
	"net/http"

	"appointment-booking/internal/dto/response"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CleanupTrigger guards the cleanup endpoint with a shared bearer token
// compared against tokenHash. An empty hash leaves the endpoint open.
func CleanupTrigger(tokenHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokenHash == "" {
			return next
		}
		hash := []byte(tokenHash)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
				logger.Warn("Rejected cleanup trigger",
					zap.String("ip", r.RemoteAddr),
					zap.Bool("token_present", ok),
				)
				utils.WriteJSON(w, http.StatusUnauthorized, response.ErrorResponse{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
