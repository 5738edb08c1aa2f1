package crypto

import (
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

const DefaultRSABits = 4096

// PGPManager owns the server key used to encrypt stored statement files.
type PGPManager struct {
	entity  *openpgp.Entity
	keyPath string
	config  *packet.Config
}

// NewPGPManager loads the armored private key at keyPath, generating one if absent.
func NewPGPManager(keyPath string, rsaBits int) (*PGPManager, error) {
	if rsaBits <= 0 {
		rsaBits = DefaultRSABits
	}
	manager := &PGPManager{
		keyPath: keyPath,
		config: &packet.Config{
			Rand:          rand.Reader,
			RSABits:       rsaBits,
			DefaultHash:   crypto.SHA256,
			DefaultCipher: packet.CipherAES256,
		},
	}

	if err := manager.init(); err != nil {
		return nil, fmt.Errorf("failed to initialise PGP: %w", err)
	}

	return manager, nil
}

func (m *PGPManager) init() error {
	if _, err := os.Stat(m.keyPath); err == nil {
		entity, err := m.loadKeyFromFile()
		if err != nil {
			return fmt.Errorf("failed to load PGP key: %w", err)
		}
		m.entity = entity
		return nil
	}

	return m.generateAndSaveKey()
}

func (m *PGPManager) generateAndSaveKey() error {
	entity, err := openpgp.NewEntity(
		"BharatLedger",
		"statement storage",
		"storage@bharatledger.local",
		m.config,
	)
	if err != nil {
		return fmt.Errorf("failed to generate entity: %w", err)
	}

	for _, id := range entity.Identities {
		err := id.SelfSignature.SignUserId(
			id.UserId.Id,
			entity.PrimaryKey,
			entity.PrivateKey,
			m.config,
		)
		if err != nil {
			return fmt.Errorf("failed to sign identity: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	file, err := os.OpenFile(m.keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer file.Close()

	armorWriter, err := armor.Encode(file, openpgp.PrivateKeyType, nil)
	if err != nil {
		return fmt.Errorf("failed to create armor writer: %w", err)
	}

	if err := entity.SerializePrivate(armorWriter, m.config); err != nil {
		armorWriter.Close()
		return fmt.Errorf("failed to serialise private key: %w", err)
	}

	if err := armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to close armor writer: %w", err)
	}

	m.entity = entity
	return nil
}

// Encrypt returns a writer that encrypts everything written to it into w.
// The caller must Close it to flush the message.
func (m *PGPManager) Encrypt(w io.Writer) (io.WriteCloser, error) {
	plain, err := openpgp.Encrypt(w, openpgp.EntityList{m.entity}, nil, &openpgp.FileHints{IsBinary: true}, m.config)
	if err != nil {
		return nil, fmt.Errorf("failed to start encryption: %w", err)
	}
	return plain, nil
}

// Decrypt returns the plaintext of a message produced by Encrypt.
func (m *PGPManager) Decrypt(r io.Reader) (io.Reader, error) {
	md, err := openpgp.ReadMessage(r, openpgp.EntityList{m.entity}, nil, m.config)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted message: %w", err)
	}
	return md.UnverifiedBody, nil
}

func (m *PGPManager) loadKeyFromFile() (*openpgp.Entity, error) {
	file, err := os.Open(m.keyPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	block, err := armor.Decode(file)
	if err != nil {
		return nil, err
	}

	if block.Type != openpgp.PrivateKeyType {
		return nil, errors.New("file is not a private key")
	}

	return openpgp.ReadEntity(packet.NewReader(block.Body))
}
