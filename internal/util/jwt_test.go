package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT ====================

// TestGenerateParseToken 正常签发和解析
func TestGenerateParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "gamecore-market", 42, time.Hour)
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	claims, err := ParseToken("secret", "gamecore-market", token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user_id = %d, want 42", claims.UserID)
	}
	if claims.Issuer != "gamecore-market" {
		t.Errorf("issuer = %s, want gamecore-market", claims.Issuer)
	}
}

// TestParseToken_WrongIssuer 别的系统签出来的 token 要拒绝
func TestParseToken_WrongIssuer(t *testing.T) {
	token, err := GenerateToken("secret", "other-system", 42, time.Hour)
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	if _, err := ParseToken("secret", "gamecore-market", token); err == nil {
		t.Error("签发方不匹配的 token 应被拒绝")
	}
}

// TestParseToken_WrongSecret 密钥不同要拒绝
func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "gamecore-market", 42, time.Hour)
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	if _, err := ParseToken("another-secret", "gamecore-market", token); err == nil {
		t.Error("错误密钥应被拒绝")
	}
}

// TestParseToken_Expired 过期 token 要拒绝
func TestParseToken_Expired(t *testing.T) {
	claims := &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gamecore-market",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}

	if _, err := ParseToken("secret", "gamecore-market", token); err == nil {
		t.Error("过期 token 应被拒绝")
	}
}
