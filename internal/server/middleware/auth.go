package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var allPermissions = []string{
	"family.view",
	"family.manage",
	"family.export",
}

func claimStrings(claims jwt.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		cc := c.(*AppContext)
		app := cc.App

		// Master API Key bypass
		if app.MasterAPIKey != "" && app.MasterUserID != "" && app.MasterUserRole != "" && token == app.MasterAPIKey {
			cc.User = &AppUser{
				UserID:      app.MasterUserID,
				Role:        app.MasterUserRole,
				Permissions: allPermissions,
			}
			return next(c)
		}

		if app.Keyfunc == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		parsed, err := jwt.Parse(token, app.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		var userID string
		switch id := claims["id"].(type) {
		case string:
			userID = id
		case float64:
			userID = strconv.FormatInt(int64(id), 10)
		}
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		role := "user"
		if roleClaim, ok := claims["role"].(string); ok {
			role = roleClaim
		}

		permissions := claimStrings(claims, "permissions")
		if role == "admin" && len(permissions) == 0 {
			permissions = allPermissions
		}

		schools := claimStrings(claims, "school_ids")
		schools = append(schools, claimStrings(claims, "school_id")...)

		cc.User = &AppUser{
			UserID:      userID,
			Role:        role,
			Permissions: permissions,
			SchoolIDs:   schools,
		}

		return next(c)
	}
}
