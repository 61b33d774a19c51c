// Package storage provides secure storage for enrolled face signatures.
// Subject records are encrypted at rest using NaCl secretbox.
package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/MrCodeEU/faceprint/pkg/enroll"
	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/logging"
)

const (
	// NonceSize is the size of the nonce used for encryption
	NonceSize = 24
	// KeySize is the size of the encryption key
	KeySize = 32
)

// SubjectData contains the enrolled record for one subject.
type SubjectData struct {
	Name        string            `json:"name"`
	Signature   feature.Signature `json:"signature"`
	Samples     int               `json:"samples"`
	Tag         enroll.Tag        `json:"tag"`
	EnrolledAt  time.Time         `json:"enrolled_at"`
	LastMatched time.Time         `json:"last_matched"`
	Metadata    map[string]string `json:"metadata"`
}

// ErrSubjectNotFound is returned when the subject is not enrolled.
var ErrSubjectNotFound = errors.New("subject not found")

// ErrSubjectExists is returned when trying to enroll an existing subject.
var ErrSubjectExists = errors.New("subject already enrolled")

// ErrStorageAccess is returned when storage cannot be accessed.
var ErrStorageAccess = errors.New("failed to access storage")

// ErrEncryption is returned when encryption/decryption fails.
var ErrEncryption = errors.New("encryption error")

// FileStorage keeps one file per subject under dataDir/subjects.
type FileStorage struct {
	dataDir           string
	encryptionEnabled bool
	encryptionKey     [KeySize]byte
}

// NewFileStorage creates a new FileStorage instance.
func NewFileStorage(dataDir string, encryptionEnabled bool) (*FileStorage, error) {
	fs := &FileStorage{
		dataDir:           dataDir,
		encryptionEnabled: encryptionEnabled,
	}

	// Derive encryption key from machine-specific information
	if encryptionEnabled {
		key, err := deriveKey()
		if err != nil {
			return nil, fmt.Errorf("failed to derive encryption key: %w", err)
		}
		fs.encryptionKey = key
	}

	subjectsDir := filepath.Join(dataDir, "subjects")
	if err := os.MkdirAll(subjectsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create subjects directory: %w", err)
	}

	return fs, nil
}

// deriveKey derives an encryption key from machine-specific information.
// This ties the encrypted data to this specific machine.
func deriveKey() ([KeySize]byte, error) {
	var key [KeySize]byte

	var identity strings.Builder

	// Machine ID (Linux specific)
	if machineID, err := os.ReadFile("/etc/machine-id"); err == nil {
		identity.Write(machineID)
	}

	if hostname, err := os.Hostname(); err == nil {
		identity.WriteString(hostname)
	}

	identity.WriteString(fmt.Sprintf("%d", os.Getuid()))

	// Add a constant salt for additional security
	identity.WriteString("faceprint-v1-salt")

	hash := sha256.Sum256([]byte(identity.String()))
	copy(key[:], hash[:])

	return key, nil
}

// subjectPath returns the file path for a subject's record.
func (fs *FileStorage) subjectPath(name string) string {
	filename := name + ".json"
	if fs.encryptionEnabled {
		filename = name + ".enc"
	}
	return filepath.Join(fs.dataDir, "subjects", filename)
}

// Save writes a subject record to storage, replacing any existing one.
func (fs *FileStorage) Save(subject SubjectData) error {
	path := fs.subjectPath(subject.Name)

	data, err := json.MarshalIndent(subject, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subject data: %w", err)
	}

	if fs.encryptionEnabled {
		data, err = fs.encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt subject data: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write subject data: %w", err)
	}

	logging.Debugf("Saved subject data for: %s", subject.Name)
	return nil
}

// Load reads a subject record from storage.
func (fs *FileStorage) Load(name string) (*SubjectData, error) {
	path := fs.subjectPath(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to read subject data: %w", err)
	}

	if fs.encryptionEnabled {
		data, err = fs.decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt subject data: %w", err)
		}
	}

	var subject SubjectData
	if err := json.Unmarshal(data, &subject); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject data: %w", err)
	}

	logging.Debugf("Loaded subject data for: %s", name)
	return &subject, nil
}

// Delete removes a subject record from storage.
func (fs *FileStorage) Delete(name string) error {
	path := fs.subjectPath(name)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("failed to delete subject data: %w", err)
	}

	logging.Infof("Deleted subject data for: %s", name)
	return nil
}

// List returns the names of all enrolled subjects.
func (fs *FileStorage) List() ([]string, error) {
	subjectsDir := filepath.Join(fs.dataDir, "subjects")

	entries, err := os.ReadDir(subjectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	var subjects []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Handle both encrypted and unencrypted files
		if strings.HasSuffix(name, ".json") {
			subjects = append(subjects, strings.TrimSuffix(name, ".json"))
		} else if strings.HasSuffix(name, ".enc") {
			subjects = append(subjects, strings.TrimSuffix(name, ".enc"))
		}
	}

	return subjects, nil
}

// Exists checks if a subject is enrolled.
func (fs *FileStorage) Exists(name string) bool {
	path := fs.subjectPath(name)
	_, err := os.Stat(path)
	return err == nil
}

// Create enrolls a new subject from an aggregation outcome. Fails if the
// subject already exists.
func (fs *FileStorage) Create(name string, outcome *enroll.Outcome, metadata map[string]string) error {
	if fs.Exists(name) {
		return ErrSubjectExists
	}

	if metadata == nil {
		metadata = make(map[string]string)
	}

	subject := SubjectData{
		Name:       name,
		Signature:  outcome.Signature,
		Samples:    outcome.Successful,
		Tag:        outcome.Tag,
		EnrolledAt: time.Now(),
		Metadata:   metadata,
	}

	return fs.Save(subject)
}

// TouchLastMatched updates the last matched timestamp for a subject.
func (fs *FileStorage) TouchLastMatched(name string) error {
	subject, err := fs.Load(name)
	if err != nil {
		return err
	}

	subject.LastMatched = time.Now()
	return fs.Save(*subject)
}

// encrypt encrypts data using NaCl secretbox.
func (fs *FileStorage) encrypt(plaintext []byte) ([]byte, error) {
	// Generate random nonce
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}

	encrypted := secretbox.Seal(nonce[:], plaintext, &nonce, &fs.encryptionKey)
	return encrypted, nil
}

// decrypt decrypts data using NaCl secretbox.
func (fs *FileStorage) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrEncryption
	}

	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, &fs.encryptionKey)
	if !ok {
		return nil, ErrEncryption
	}

	return plaintext, nil
}
