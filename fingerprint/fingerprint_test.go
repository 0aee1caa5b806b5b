package fingerprint

import (
	"testing"

	"github.com/SludgePhD/Providence/wire"
)

type pointA struct {
	X, Y float32
}

type pointB struct {
	X, Y float32
}

type pointRenamed struct {
	X, Z float32
}

type pointWidened struct {
	X, Y float64
}

type vec2 [2]float32
type vec3 [3]float32

type fakeEnum struct{}

func (fakeEnum) Variants() []string { return []string{"A", "B"} }

type fakeEnumSameVariants struct{}

func (fakeEnumSameVariants) Variants() []string { return []string{"A", "B"} }

// TestStructurallyIdenticalTypesMatch covers invariant 2: two distinct Go
// types with the same field names, order, and primitive widths fingerprint
// identically.
func TestStructurallyIdenticalTypesMatch(t *testing.T) {
	if Of[pointA]() != Of[pointB]() {
		t.Fatal("structurally identical types should share a fingerprint")
	}
}

func TestRenamedFieldChangesFingerprint(t *testing.T) {
	if Of[pointA]() == Of[pointRenamed]() {
		t.Fatal("renaming a field should change the fingerprint")
	}
}

func TestWidenedFieldChangesFingerprint(t *testing.T) {
	if Of[pointA]() == Of[pointWidened]() {
		t.Fatal("widening a field's primitive type should change the fingerprint")
	}
}

// TestTupleLengthIsPartOfFingerprint ensures arrays of different lengths
// (e.g. a 2-component vs 3-component vector) never collide, since the eye
// tracking data model depends on catching exactly this kind of width
// regression.
func TestTupleLengthIsPartOfFingerprint(t *testing.T) {
	if Of[vec2]() == Of[vec3]() {
		t.Fatal("arrays of different lengths must fingerprint differently")
	}
}

func TestEnumVariantsDriveFingerprint(t *testing.T) {
	if Of[fakeEnum]() != Of[fakeEnumSameVariants]() {
		t.Fatal("two enum types with identical variant lists should match")
	}
}

func TestPersistentIDIsRecognizedAsEnum(t *testing.T) {
	// Should not panic: PersistentID implements Variants() and is handled
	// as an enum rather than walked as an ordinary two-field struct.
	_ = Of[wire.PersistentID]()
}

func TestTrackingMessageFingerprintIsStable(t *testing.T) {
	a := Of[wire.TrackingMessage]()
	b := Of[wire.TrackingMessage]()
	if a != b {
		t.Fatal("repeated calls for the same type must return the same fingerprint")
	}
}

func TestUnsupportedKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("fingerprinting a map-containing type should panic")
		}
	}()
	type hasMap struct {
		M map[string]int
	}
	Of[hasMap]()
}

func TestUnexportedFieldsAreIgnored(t *testing.T) {
	type withUnexported struct {
		X int32
		y int32 //nolint:unused
	}
	type withoutUnexported struct {
		X int32
	}
	_ = withUnexported{}
	if Of[withUnexported]() != Of[withoutUnexported]() {
		t.Fatal("unexported fields should not affect the fingerprint")
	}
}
