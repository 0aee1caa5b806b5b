package pipeline

import "testing"

func TestEMAFilterFirstApplyPassesThrough(t *testing.T) {
	f := NewEMAFilter(0.5)
	in := Landmarks{{X: 1, Y: 2, Z: 3}}
	out := f.Apply(in)
	if out[0] != in[0] {
		t.Fatalf("first Apply = %+v, want unchanged %+v", out[0], in[0])
	}
}

func TestEMAFilterBlendsWithPrevious(t *testing.T) {
	f := NewEMAFilter(0.5)
	f.Apply(Landmarks{{X: 0, Y: 0, Z: 0}})
	out := f.Apply(Landmarks{{X: 10, Y: 10, Z: 10}})
	want := Point3{X: 5, Y: 5, Z: 5}
	if out[0] != want {
		t.Fatalf("blended = %+v, want %+v", out[0], want)
	}
}

func TestEMAFilterResetDropsState(t *testing.T) {
	f := NewEMAFilter(0.5)
	f.Apply(Landmarks{{X: 0, Y: 0, Z: 0}})
	f.Reset()
	in := Landmarks{{X: 10, Y: 10, Z: 10}}
	out := f.Apply(in)
	if out[0] != in[0] {
		t.Fatalf("Apply after Reset = %+v, want unchanged %+v", out[0], in[0])
	}
}

func TestEMAFilterLengthChangeResetsState(t *testing.T) {
	f := NewEMAFilter(0.5)
	f.Apply(Landmarks{{X: 0, Y: 0, Z: 0}})
	in := Landmarks{{X: 10, Y: 10, Z: 10}, {X: 20, Y: 20, Z: 20}}
	out := f.Apply(in)
	if out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("Apply with changed length = %+v, want unchanged %+v", out, in)
	}
}
