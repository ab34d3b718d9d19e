package fonts

import (
	"encoding/base64"
	"testing"
)

func TestMeasure(t *testing.T) {
	short := Measure("1MHz", 14, 0)
	long := Measure("160MHz", 14, 0)
	if short <= 0 || long <= short {
		t.Errorf("Measure: short=%v long=%v", short, long)
	}
	if got := Measure("160MHz", 28, 0); got <= long*1.9 || got >= long*2.1 {
		t.Errorf("doubling the size should double the width: %v vs %v", got, long)
	}
	if spaced := Measure("160MHz", 14, 1); spaced != long+6 {
		t.Errorf("letter spacing: got %v, want %v", spaced, long+6)
	}
	if Measure("", 14, 1) != 0 {
		t.Error("empty text should have zero width")
	}
}

func TestFaceCached(t *testing.T) {
	a, err := Face(11)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Face(11)
	if a != b {
		t.Error("faces should be cached per size")
	}
}

func TestRegularTTFBase64(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(RegularTTFBase64())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(RegularTTF()) {
		t.Errorf("decoded %d bytes, want %d", len(data), len(RegularTTF()))
	}
}
