package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrCodeEU/faceprint/pkg/enroll"
	"github.com/MrCodeEU/faceprint/pkg/feature"
)

func testSignature(length int, value float64) feature.Signature {
	sig := make(feature.Signature, length)
	for i := range sig {
		sig[i] = value
	}
	return sig
}

func TestNewFileStorage(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name       string
		dataDir    string
		encryption bool
		wantErr    bool
	}{
		{
			name:       "without encryption",
			dataDir:    filepath.Join(tmpDir, "test1"),
			encryption: false,
			wantErr:    false,
		},
		{
			name:       "with encryption",
			dataDir:    filepath.Join(tmpDir, "test2"),
			encryption: true,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := NewFileStorage(tt.dataDir, tt.encryption)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFileStorage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if fs == nil {
				t.Error("NewFileStorage returned nil")
			}

			// Check directories were created
			subjectsDir := filepath.Join(tt.dataDir, "subjects")
			if _, err := os.Stat(subjectsDir); os.IsNotExist(err) {
				t.Error("subjects directory was not created")
			}
		})
	}
}

func TestFileStorage_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	subject := SubjectData{
		Name:       "testsubject",
		Signature:  testSignature(16, 0.25),
		Samples:    3,
		Tag:        enroll.TagExcellent,
		EnrolledAt: time.Now(),
		Metadata:   map[string]string{"device": "webcam"},
	}

	if err := fs.Save(subject); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := fs.Load("testsubject")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Name != subject.Name {
		t.Errorf("name mismatch: got %s, want %s", loaded.Name, subject.Name)
	}
	if len(loaded.Signature) != len(subject.Signature) {
		t.Fatalf("signature length mismatch: got %d, want %d", len(loaded.Signature), len(subject.Signature))
	}
	for i := range loaded.Signature {
		if math.Abs(loaded.Signature[i]-subject.Signature[i]) > 1e-12 {
			t.Errorf("signature element %d mismatch: got %f, want %f", i, loaded.Signature[i], subject.Signature[i])
		}
	}
	if loaded.Tag != enroll.TagExcellent {
		t.Errorf("tag mismatch: got %s, want %s", loaded.Tag, enroll.TagExcellent)
	}
	if loaded.Metadata["device"] != "webcam" {
		t.Error("metadata not preserved")
	}
}

func TestFileStorage_SaveAndLoad_Encrypted(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, true)
	if err != nil {
		t.Fatalf("failed to create encrypted storage: %v", err)
	}

	subject := SubjectData{
		Name:       "encryptedsubject",
		Signature:  testSignature(16, 0.25),
		Samples:    2,
		Tag:        enroll.TagGood,
		EnrolledAt: time.Now(),
		Metadata:   map[string]string{"test": "value"},
	}

	if err := fs.Save(subject); err != nil {
		t.Fatalf("Save (encrypted) failed: %v", err)
	}

	loaded, err := fs.Load("encryptedsubject")
	if err != nil {
		t.Fatalf("Load (encrypted) failed: %v", err)
	}

	if loaded.Name != subject.Name {
		t.Errorf("name mismatch after encryption: got %s, want %s", loaded.Name, subject.Name)
	}

	// Verify the file is encrypted (not valid JSON)
	filePath := filepath.Join(tmpDir, "subjects", "encryptedsubject.enc")
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("failed to read encrypted file: %v", err)
	}

	// First byte should not be '{' if encrypted
	if len(data) > 0 && data[0] == '{' {
		t.Error("file does not appear to be encrypted")
	}
}

func TestFileStorage_Load_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	_, err = fs.Load("nonexistent")
	if err != ErrSubjectNotFound {
		t.Errorf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestFileStorage_Create(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	outcome := &enroll.Outcome{
		Signature:  testSignature(16, 0.25),
		Successful: 2,
		Tag:        enroll.TagGood,
	}

	if err := fs.Create("newsubject", outcome, nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := fs.Create("newsubject", outcome, nil); err != ErrSubjectExists {
		t.Errorf("expected ErrSubjectExists on duplicate, got %v", err)
	}

	loaded, err := fs.Load("newsubject")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Samples != 2 {
		t.Errorf("expected 2 samples, got %d", loaded.Samples)
	}
	if loaded.EnrolledAt.IsZero() {
		t.Error("EnrolledAt not set")
	}
	if loaded.Metadata == nil {
		t.Error("metadata should default to an empty map")
	}
}

func TestFileStorage_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	subject := SubjectData{Name: "tobedeleted", Signature: testSignature(4, 0.5)}
	if err := fs.Save(subject); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := fs.Delete("tobedeleted"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if fs.Exists("tobedeleted") {
		t.Error("subject still exists after delete")
	}
	if err := fs.Delete("tobedeleted"); err != ErrSubjectNotFound {
		t.Errorf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestFileStorage_List(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	names, err := fs.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected empty list, got %v", names)
	}

	for _, name := range []string{"alice", "bob"} {
		if err := fs.Save(SubjectData{Name: name, Signature: testSignature(4, 0.5)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	names, err = fs.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 subjects, got %v", names)
	}
}

func TestFileStorage_TouchLastMatched(t *testing.T) {
	tmpDir := t.TempDir()
	fs, err := NewFileStorage(tmpDir, false)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	subject := SubjectData{Name: "matched", Signature: testSignature(4, 0.5)}
	if err := fs.Save(subject); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := fs.TouchLastMatched("matched"); err != nil {
		t.Fatalf("TouchLastMatched failed: %v", err)
	}

	loaded, err := fs.Load("matched")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LastMatched.IsZero() {
		t.Error("LastMatched not updated")
	}
}
