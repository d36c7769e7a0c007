package encryption

import (
	"bytes"
	"errors"
	"testing"

	"prax-go/internal/config"
)

func TestPlainEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "sqlite header", input: []byte("SQLite format 3\x00")},
		{name: "empty store", input: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewPlainEncryptor()

			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(sealed.Bytes(), plainMarker) {
				t.Error("sealed output does not start with the plain marker")
			}

			dec, err := e.Unlock("anything")
			if err != nil {
				t.Fatalf("Unlock() before Setup error = %v", err)
			}
			var out bytes.Buffer
			if err := dec.Decrypt(&sealed, &out); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(out.Bytes(), tt.input) {
				t.Errorf("Decrypt() = %q, want %q", out.Bytes(), tt.input)
			}
		})
	}
}

func TestPlainEncryptor_SetupPinsPassphrase(t *testing.T) {
	t.Parallel()
	e := NewPlainEncryptor()
	if err := e.Setup(""); err == nil {
		t.Error("Setup(\"\") expected error")
	}
	if err := e.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := e.Unlock("wrong"); err == nil {
		t.Error("Unlock() with wrong passphrase expected error")
	}
	if _, err := e.Unlock("right"); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}
}

func TestPlainEncryptor_RejectsForeignData(t *testing.T) {
	t.Parallel()
	dec, err := NewPlainEncryptor().Unlock("")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, input := range [][]byte{[]byte("SQLite format 3\x00 raw store"), []byte("PRAX"), nil} {
		if err := dec.Decrypt(bytes.NewReader(input), &bytes.Buffer{}); !errors.Is(err, ErrNotPlainSnapshot) {
			t.Errorf("Decrypt(%q) error = %v, want ErrNotPlainSnapshot", input, err)
		}
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	keys := config.EncryptionConfig{PublicKeyPath: "/keys/prax.pub", PrivateKeyPath: "/keys/prax.key"}
	withType := func(typ string) config.EncryptionConfig {
		c := keys
		c.Type = typ
		return c
	}

	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantNil bool
		wantErr bool
	}{
		{name: "age", cfg: withType(TypeAge)},
		{name: "default is age", cfg: withType("")},
		{name: "age without keys", cfg: config.EncryptionConfig{Type: TypeAge}, wantNil: true, wantErr: true},
		{name: "plain", cfg: config.EncryptionConfig{Type: TypePlain}},
		{name: "none", cfg: config.EncryptionConfig{Type: TypeNone}, wantNil: true},
		{name: "unknown", cfg: withType("rot13"), wantNil: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (e == nil) != tt.wantNil {
				t.Errorf("NewEncryptorFromConfig() = %v, wantNil %v", e, tt.wantNil)
			}
		})
	}
}
