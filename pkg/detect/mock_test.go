package detect

import "github.com/MrCodeEU/faceprint/pkg/imaging"

// MockFinder is a FaceFinder stub for selector tests.
type MockFinder struct {
	DetectFunc func(gray *imaging.Gray, p Params) []imaging.Rectangle
	Calls      []Params
}

func (m *MockFinder) Detect(gray *imaging.Gray, p Params) []imaging.Rectangle {
	m.Calls = append(m.Calls, p)
	if m.DetectFunc != nil {
		return m.DetectFunc(gray, p)
	}
	return nil
}
