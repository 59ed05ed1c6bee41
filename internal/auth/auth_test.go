package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eryajf/medqa/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestTokenRoundTrip(t *testing.T) {
	identity := &Identity{ID: 7, Username: "alice", Roles: []string{"user", "admin"}}

	token, err := GenerateToken(identity, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := ParseToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "alice" {
		t.Errorf("claims = %+v", claims)
	}
	if len(claims.Roles) != 2 {
		t.Errorf("Roles = %v, want 2 roles", claims.Roles)
	}
	if claims.Issuer != "medqa" {
		t.Errorf("Issuer = %q, want medqa", claims.Issuer)
	}
}

func TestParseTokenRejections(t *testing.T) {
	identity := &Identity{ID: 1, Username: "bob"}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(identity, "secret-a", time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		if _, err := ParseToken(token, "secret-b"); err == nil {
			t.Error("ParseToken() accepted token signed with another secret")
		}
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(identity, "secret", -time.Minute)
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		if _, err := ParseToken(token, "secret"); err == nil {
			t.Error("ParseToken() accepted expired token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseToken("not.a.token", "secret"); err == nil {
			t.Error("ParseToken() accepted garbage input")
		}
	})
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateToken(&Identity{Username: "x"}, "", time.Hour); err == nil {
		t.Error("GenerateToken() accepted empty secret")
	}
}

func testVerifier(t *testing.T) (*GormVerifier, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewGormVerifier(db), db
}

func TestVerify(t *testing.T) {
	verifier, db := testVerifier(t)
	ctx := context.Background()

	user := &model.User{Username: "alice", Roles: "user,admin", Enabled: true}
	if err := user.SetPassword("correct-horse"); err != nil {
		t.Fatalf("SetPassword() error: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	disabled := &model.User{Username: "mallory", Enabled: false}
	if err := disabled.SetPassword("pw"); err != nil {
		t.Fatalf("SetPassword() error: %v", err)
	}
	if err := db.Create(disabled).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		identity, err := verifier.Verify(ctx, "alice", "correct-horse")
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if identity.Username != "alice" {
			t.Errorf("Username = %q", identity.Username)
		}
		if len(identity.Roles) != 2 || identity.Roles[1] != "admin" {
			t.Errorf("Roles = %v, want [user admin]", identity.Roles)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := verifier.Verify(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := verifier.Verify(ctx, "nobody", "pw"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("disabled user", func(t *testing.T) {
		if _, err := verifier.Verify(ctx, "mallory", "pw"); !errors.Is(err, ErrUserDisabled) {
			t.Errorf("error = %v, want ErrUserDisabled", err)
		}
	})
}
