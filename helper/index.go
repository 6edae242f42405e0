package helper

import (
	"errors"
	"fmt"
	"time"

	"storefront/model"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateAccessToken ký access token HS256 (dùng cho môi trường dev và test,
// token thật do dịch vụ tài khoản cấp)
func GenerateAccessToken(secret []byte, tokenClaim model.TokenClaim, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["userId"] = tokenClaim.UserId
	claims["username"] = tokenClaim.Username
	claims["role"] = tokenClaim.Role
	claims["exp"] = time.Now().Add(ttl).Unix()

	return token.SignedString(secret)
}

// ParseToken xác thực chữ ký + hạn và trả về TokenClaim
func ParseToken(secret []byte, tokenString string) (model.TokenClaim, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Xác thực thuật toán ký là HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return model.TokenClaim{}, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.TokenClaim{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, ErrInvalidToken
	}
	userID, _ := claims["userId"].(float64)
	if userID <= 0 {
		return model.TokenClaim{}, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return model.TokenClaim{UserId: uint(userID), Username: username, Role: role}, nil
}

// GetUserFromToken đọc TokenClaim mà middleware.Protected đã gắn
func GetUserFromToken(c *fiber.Ctx) (model.TokenClaim, bool) {
	claim, ok := c.Locals("user").(model.TokenClaim)
	return claim, ok && claim.UserId != 0
}
