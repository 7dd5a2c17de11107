package utils

import (
	"errors"
	"fmt"
	"time"

	"go-chat-presence/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// 自定义JWT声明结构
// Subject 即用户ID
type Claims struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	jwt.RegisteredClaims
}

// Profile 是写入令牌的可选用户资料
type Profile struct {
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// 密钥在调用时读取, 保证配置加载之后生效
func jwtSecret() []byte {
	return []byte(config.GlobalConfig.JWT.Secret)
}

// 生成JWT令牌
func GenerateToken(userID string, profile Profile) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	jwtConfig := config.GlobalConfig.JWT
	now := time.Now()
	claims := Claims{
		UserID:          userID,
		Email:           profile.Email,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		ProfileImageURL: profile.ProfileImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    jwtConfig.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// 解析JWT令牌
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
