package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	root := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := NewFileStore(root, logger)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, root
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()
	key := "uploads/user-1/acc-1_1700000000000_statement.csv"

	n, err := s.Put(ctx, key, strings.NewReader("hello,world\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 12 {
		t.Errorf("Put wrote %d bytes, want 12", n)
	}
	if _, err := os.Stat(filepath.Join(root, "uploads", "user-1", "acc-1_1700000000000_statement.csv")); err != nil {
		t.Fatalf("blob not on disk: %v", err)
	}

	rc, err := s.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if string(got) != "hello,world\n" {
		t.Errorf("Open = %q", got)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after delete: got %v, want ErrNotFound", err)
	}
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	s, _ := newTestStore(t)
	keys := []string{"", "../etc/passwd", "uploads/../../x", "/abs/path", "a//b", `a\b`, "a/./b"}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			if _, err := s.Put(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
			}
		})
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "a/b.csv", strings.NewReader("data")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// xorCipher is a reversible stand-in for the PGP manager.
type xorCipher struct{}

type xorWriter struct{ w io.Writer }

func (x xorWriter) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	for i, b := range p {
		buf[i] = b ^ 0x5a
	}
	return x.w.Write(buf)
}

func (x xorWriter) Close() error { return nil }

type xorReader struct{ r io.Reader }

func (x xorReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= 0x5a
	}
	return n, err
}

func (xorCipher) Encrypt(w io.Writer) (io.WriteCloser, error) { return xorWriter{w: w}, nil }
func (xorCipher) Decrypt(r io.Reader) (io.Reader, error)      { return xorReader{r: r}, nil }

func TestEncryptedStore(t *testing.T) {
	base, root := newTestStore(t)
	s := NewEncryptedStore(base, xorCipher{})
	ctx := context.Background()
	plain := []byte("Date,Narration,Amount\n")

	n, err := s.Put(ctx, "u/a.csv", bytes.NewReader(plain))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len(plain)) {
		t.Errorf("Put = %d, want %d", n, len(plain))
	}

	onDisk, err := os.ReadFile(filepath.Join(root, "u", "a.csv"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if bytes.Equal(onDisk, plain) {
		t.Error("blob stored in plaintext")
	}

	rc, err := s.Open(ctx, "u/a.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, plain) {
		t.Errorf("decrypted = %q, want %q", got, plain)
	}
}
