package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	secretFile := filepath.Join(dir, "token")
	if err := os.WriteFile(secretFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing empty file: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{
			name:   "inline value is trimmed",
			src:    Source{Name: "api key", Value: "  inline  "},
			expect: "inline",
		},
		{
			name:   "file takes precedence over value",
			src:    Source{Name: "api key", Value: "inline", File: secretFile},
			expect: "from-file",
		},
		{
			name:    "empty file is an error",
			src:     Source{Name: "api key", File: emptyFile},
			wantErr: "is empty",
		},
		{
			name:    "missing file is an error",
			src:     Source{Name: "api key", File: filepath.Join(dir, "absent")},
			wantErr: "reading api key",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "api key"},
			wantErr: "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestMailPasswordRoundTrip(t *testing.T) {
	keyring.MockInit()

	account := KeyringAccount("alice", "imap.example.com")
	if account != "imap:alice@imap.example.com" {
		t.Fatalf("unexpected account name %q", account)
	}

	if _, err := GetMailPassword(account); err == nil {
		t.Fatalf("expected error before password is stored")
	}

	if err := SetMailPassword(account, "s3cret"); err != nil {
		t.Fatalf("storing password: %v", err)
	}

	got, err := GetMailPassword(account)
	if err != nil {
		t.Fatalf("reading password: %v", err)
	}
	if got != "s3cret" {
		t.Fatalf("expected stored password, got %q", got)
	}

	if err := DeleteMailPassword(account); err != nil {
		t.Fatalf("deleting password: %v", err)
	}

	if _, err := GetMailPassword(account); err == nil {
		t.Fatalf("expected error after password deletion")
	}
}

func TestSetMailPasswordValidation(t *testing.T) {
	keyring.MockInit()

	if err := SetMailPassword("  ", "value"); err == nil {
		t.Fatalf("expected error for empty account")
	}

	if err := SetMailPassword("imap:a@b", "  "); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
