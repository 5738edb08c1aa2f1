package storage

import (
	"context"
	"fmt"
	"io"
)

// Cipher is implemented by crypto.PGPManager.
type Cipher interface {
	Encrypt(w io.Writer) (io.WriteCloser, error)
	Decrypt(r io.Reader) (io.Reader, error)
}

// EncryptedStore encrypts blobs before handing them to the underlying store.
// Put reports the plaintext size.
type EncryptedStore struct {
	next   BlobStore
	cipher Cipher
}

func NewEncryptedStore(next BlobStore, cipher Cipher) *EncryptedStore {
	return &EncryptedStore{next: next, cipher: cipher}
}

func (s *EncryptedStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	pr, pw := io.Pipe()

	var written int64
	go func() {
		enc, err := s.cipher.Encrypt(pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		n, err := io.Copy(enc, r)
		written = n
		if err != nil {
			enc.Close()
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(enc.Close())
	}()

	if _, err := s.next.Put(ctx, key, pr); err != nil {
		pr.CloseWithError(err)
		return 0, fmt.Errorf("store encrypted blob: %w", err)
	}
	return written, nil
}

func (s *EncryptedStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.next.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Decrypt(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("decrypt blob: %w", err)
	}
	return &decryptedBlob{Reader: plain, closer: rc}, nil
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

type decryptedBlob struct {
	io.Reader
	closer io.Closer
}

func (b *decryptedBlob) Close() error {
	return b.closer.Close()
}
