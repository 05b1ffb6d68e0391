package drive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestSaveToken_OwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := saveToken(path, &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}); err != nil {
		t.Fatalf("saveToken() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	got, err := loadToken(path)
	if err != nil {
		t.Fatalf("loadToken() error = %v", err)
	}
	if got.RefreshToken != "refresh" || !got.Expiry.Equal(expiry) {
		t.Errorf("loadToken() = %+v", got)
	}
}

func TestLoadToken_Missing(t *testing.T) {
	if _, err := loadToken(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing token file")
	}
}

func TestNewClientWithOAuth_UsesInjectedService(t *testing.T) {
	svc := &mockDriveService{}
	client, err := NewClientWithOAuth(context.Background(), OAuthConfig{CredentialsFile: "does-not-exist.json"}, WithDriveService(svc))
	if err != nil {
		t.Fatalf("NewClientWithOAuth() error = %v", err)
	}
	if client.driveService != svc {
		t.Error("expected injected drive service")
	}
}

func TestNewClientWithOAuth_MissingCredentials(t *testing.T) {
	_, err := NewClientWithOAuth(context.Background(), OAuthConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatal("expected error for missing credentials file")
	}
}
