package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/Spok95/school-platform-api/internal/apperr"
	"github.com/Spok95/school-platform-api/internal/ctxutil"
	"github.com/Spok95/school-platform-api/internal/policy"
)

type callerKey struct{}

// requireAuth достаёт Bearer-токен, проверяет подпись и кладёт
// caller-а (роль и школьную привязку из БД) в контекст запроса.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeErr(w, http.StatusUnauthorized, apperr.KindInvalidCredentials, "требуется заголовок Authorization: Bearer")
			return
		}
		user, err := s.auth.Identify(r.Context(), token)
		if err != nil {
			s.writeFailure(w, r.Context(), err)
			return
		}
		caller := policy.Caller{UserID: user.ID, Role: user.Role, SchoolID: user.SchoolID}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		ctx = ctxutil.WithUserID(ctx, user.ID)
		ctx = ctxutil.WithRole(ctx, string(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerFrom(ctx context.Context) (policy.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(policy.Caller)
	return c, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, prefix))
	return token, token != ""
}
