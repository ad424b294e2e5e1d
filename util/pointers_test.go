package util

import "testing"

func TestPtrDeref(t *testing.T) {
	p := Ptr(42)
	if *p != 42 {
		t.Errorf("Ptr: got %d", *p)
	}
	if got := Deref(p); got != 42 {
		t.Errorf("Deref: got %d", got)
	}
	if got := Deref[int](nil); got != 0 {
		t.Errorf("Deref(nil): got %d", got)
	}
}

func TestDerefOr(t *testing.T) {
	if got := DerefOr[bool](nil, true); got != true {
		t.Error("DerefOr(nil) should return the default")
	}
	if got := DerefOr(Ptr(false), true); got != false {
		t.Error("DerefOr should return the pointed-to value")
	}
}
