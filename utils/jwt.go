package utils

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yeremiapane/jobconnect-app/models"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Default secret untuk development
		log.Printf("Warning: JWT_SECRET not found in environment, using default secret")
		secret = "TestSecretKeyAUTH1945"
	}

	JWTSecret = []byte(secret)
}

type CustomClaims struct {
	ActorType models.ActorType `json:"actor_type"`
	ActorID   uint             `json:"actor_id"`
	jwt.RegisteredClaims
}

// Principal mengubah claims menjadi principal yang dipakai seluruh core
func (cc *CustomClaims) Principal() models.Principal {
	return models.Principal{Type: cc.ActorType, ID: cc.ActorID}
}

func GenerateToken(actorType models.ActorType, actorID uint) (string, error) {
	claims := &CustomClaims{
		ActorType: actorType,
		ActorID:   actorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "JobConnectApp",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(JWTSecret)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if !claims.Principal().Valid() {
		return nil, errors.New("invalid principal in token")
	}

	return claims, nil
}
