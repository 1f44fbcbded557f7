package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const memberKey = "member"

// MemberLoader resolves token subjects to members
type MemberLoader interface {
	FindByID(ctx context.Context, id uint64) (*domain.Member, error)
}

// MemberAuth resolves the acting member from a Bearer token.
// No Authorization header means an anonymous request; a bad token is rejected.
func MemberAuth(jwtManager *jwt.Manager, members MemberLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		// 3. Verify token
		claims, err := jwtManager.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		// 4. Load the member
		member, err := members.FindByID(c.Request.Context(), claims.MemberID)
		if err != nil {
			if errors.Is(err, common.ErrMemberNotFound) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Unknown member", err)
			} else {
				common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load member", err)
			}
			c.Abort()
			return
		}

		c.Set(memberKey, member)
		c.Next()
	}
}

// RequireMember rejects anonymous requests
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetMember(c) == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", common.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetMember returns the acting member, nil when anonymous
func GetMember(c *gin.Context) *domain.Member {
	v, exists := c.Get(memberKey)
	if !exists {
		return nil
	}
	member, _ := v.(*domain.Member)
	return member
}

// GetMemberID returns the acting member's ID, 0 when anonymous
func GetMemberID(c *gin.Context) uint64 {
	if m := GetMember(c); m != nil {
		return m.ID
	}
	return 0
}
