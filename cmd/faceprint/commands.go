package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/MrCodeEU/faceprint/pkg/enroll"
	"github.com/MrCodeEU/faceprint/pkg/feature"
	"github.com/MrCodeEU/faceprint/pkg/logging"
	"github.com/MrCodeEU/faceprint/pkg/match"
	"github.com/MrCodeEU/faceprint/pkg/quality"
	"github.com/MrCodeEU/faceprint/pkg/storage"
)

// encodeResult is the JSON envelope for the encode command.
type encodeResult struct {
	Signature feature.Signature `json:"signature"`
	Length    int               `json:"length"`
	Quality   quality.Score     `json:"quality"`
}

// compareResult is the JSON envelope for the compare command.
type compareResult struct {
	Subject string       `json:"subject"`
	Result  match.Result `json:"result"`
}

// enrollResult is the JSON envelope for the enroll command.
type enrollResult struct {
	Subject    string   `json:"subject"`
	Successful int      `json:"successful_samples"`
	Skipped    int      `json:"skipped_samples"`
	Tag        string   `json:"tag"`
	Failures   []string `json:"failures,omitempty"`
}

// identifyResult is the JSON envelope for the identify command.
type identifyResult struct {
	Subject string       `json:"subject"`
	Result  match.Result `json:"result"`
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func cmdEncode(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("image required\nUsage: faceprint encode <image>")
	}

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	sig, score, err := eng.Encode(img)
	if err != nil {
		return err
	}

	return printJSON(encodeResult{
		Signature: sig,
		Length:    len(sig),
		Quality:   *score,
	})
}

func cmdCompare(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("subject and image required\nUsage: faceprint compare <subject> <image>")
	}
	subjectName := args[0]

	img, err := loadImage(args[1])
	if err != nil {
		return err
	}

	store, err := newStorage()
	if err != nil {
		return err
	}

	subject, err := store.Load(subjectName)
	if err != nil {
		if errors.Is(err, storage.ErrSubjectNotFound) {
			return fmt.Errorf("subject '%s' is not enrolled. Use 'faceprint enroll %s <images>' first", subjectName, subjectName)
		}
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	result, err := eng.Compare(subject.Signature, img, *tolerance)
	if err != nil {
		return err
	}

	if result.IsMatch {
		if err := store.TouchLastMatched(subjectName); err != nil {
			logging.WithError(err).Warnf("Could not update last matched time for %s", subjectName)
		}
	}

	return printJSON(compareResult{Subject: subjectName, Result: *result})
}

func cmdEnroll(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("subject and at least one image required\nUsage: faceprint enroll <subject> <image> [image...]")
	}
	subjectName := args[0]

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	store, err := newStorage()
	if err != nil {
		return err
	}
	if store.Exists(subjectName) {
		return fmt.Errorf("subject '%s' is already enrolled. Use 'faceprint remove %s' first", subjectName, subjectName)
	}

	var images []image.Image
	for _, src := range args[1:] {
		img, err := loadImage(src)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	logging.Infof("Enrolling subject '%s' from %d image(s)", subjectName, len(images))

	outcome, err := eng.Aggregate(images)
	if err != nil {
		if errors.Is(err, enroll.ErrNoUsableSamples) {
			return fmt.Errorf("no usable face found in any of the %d image(s)", len(images))
		}
		return err
	}

	if err := store.Create(subjectName, outcome, map[string]string{
		"enrolled_with": fmt.Sprintf("faceprint v%s", version),
		"enrolled_date": time.Now().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	return printJSON(enrollResult{
		Subject:    subjectName,
		Successful: outcome.Successful,
		Skipped:    outcome.Skipped,
		Tag:        string(outcome.Tag),
		Failures:   outcome.Failures,
	})
}

func cmdIdentify(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("image required\nUsage: faceprint identify <image>")
	}

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	store, err := newStorage()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no subjects enrolled")
	}

	gallery := make([]feature.Signature, 0, len(names))
	for _, name := range names {
		subject, err := store.Load(name)
		if err != nil {
			return err
		}
		gallery = append(gallery, subject.Signature)
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	idx, result, err := eng.FindBestMatch(gallery, img)
	if err != nil {
		return err
	}

	return printJSON(identifyResult{Subject: names[idx], Result: *result})
}

func cmdRemove(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("subject required\nUsage: faceprint remove <subject>")
	}
	subjectName := args[0]

	store, err := newStorage()
	if err != nil {
		return err
	}

	if err := store.Delete(subjectName); err != nil {
		if errors.Is(err, storage.ErrSubjectNotFound) {
			return fmt.Errorf("subject '%s' is not enrolled", subjectName)
		}
		return err
	}

	fmt.Printf("Signature for '%s' has been removed.\n", subjectName)
	return nil
}

func cmdList(args []string) error {
	logging.Debug("Listing enrolled subjects")

	store, err := newStorage()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No subjects enrolled.")
		return nil
	}

	fmt.Println("Enrolled subjects:")
	for _, name := range names {
		subject, err := store.Load(name)
		if err != nil {
			fmt.Printf("  - %s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("  - %-20s %d sample(s), %s, enrolled %s\n",
			subject.Name, subject.Samples, subject.Tag,
			subject.EnrolledAt.Format("2006-01-02"))
	}
	fmt.Printf("\nTotal: %d subject(s)\n", len(names))

	return nil
}
