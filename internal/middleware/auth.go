package middleware

import (
	"errors"
	"praxis_backend/internal/config"
	"praxis_backend/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware 校验 Supabase 签发的 Bearer token。
// 认证关闭时所有请求都以开发用户身份执行
func AuthMiddleware(cfg config.AuthConfig, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Warn("Authentication disabled, all requests run as the dev user",
			zap.String("dev_user_id", cfg.DevUserID))
	}

	devUser := &util.Claims{Email: cfg.DevEmail, Role: util.SupabaseAudience}
	devUser.Subject = cfg.DevUserID

	return func(c *gin.Context) {
		if !cfg.Enabled {
			util.SetUser(c, devUser)
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			util.Fail(c, util.NewAuthentication("Token de autenticação não fornecido"))
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWTSecret)
		if err != nil {
			log.Debug("JWT rejected", zap.Error(err))
			msg := "Token inválido"
			if errors.Is(err, util.ErrTokenExpired) {
				msg = "Token expirado. Faça login novamente."
			}
			util.Fail(c, util.NewAuthentication(msg))
			c.Abort()
			return
		}

		util.SetUser(c, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// CurrentUserID 必须在 AuthMiddleware 之后使用
func CurrentUserID(c *gin.Context) string {
	if claims := util.GetUserFromContext(c); claims != nil {
		return claims.UserID()
	}
	return ""
}
