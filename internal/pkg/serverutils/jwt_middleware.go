package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware requires a valid bearer token and stores the identity
// claims on the request context.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("org_id", claims["org_id"])
	return ctx.Next()
}

// IdentityMiddleware resolves the caller identity used for rate-limit
// scoping. A valid bearer token wins; otherwise the X-User-Id and X-Org-Id
// headers are accepted, and finally an anonymous identity keyed by client
// IP so unauthenticated traffic still shares one throttling bucket.
func IdentityMiddleware(ctx *fiber.Ctx) error {
	if authHeader := ctx.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token, err := jwt.Parse(authHeader[7:], func(t *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if uid, ok := claims["user_id"].(string); ok && uid != "" {
					ctx.Locals("user_id", uid)
				}
				if oid, ok := claims["org_id"].(string); ok && oid != "" {
					ctx.Locals("org_id", oid)
				}
			}
		}
	}

	if ctx.Locals("user_id") == nil {
		if uid := ctx.Get("X-User-Id"); uid != "" {
			ctx.Locals("user_id", uid)
		} else {
			ctx.Locals("user_id", "anon:"+ctx.IP())
		}
	}
	if ctx.Locals("org_id") == nil {
		if oid := ctx.Get("X-Org-Id"); oid != "" {
			ctx.Locals("org_id", oid)
		} else {
			ctx.Locals("org_id", "org:default")
		}
	}
	return ctx.Next()
}

// Identity reads the resolved identity off the request context.
func Identity(ctx *fiber.Ctx) (userID, orgID string) {
	if v, ok := ctx.Locals("user_id").(string); ok {
		userID = v
	}
	if v, ok := ctx.Locals("org_id").(string); ok {
		orgID = v
	}
	return userID, orgID
}
