package uuid

import "testing"

func TestGenUUID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		uuid := GenUUID()
		if len(uuid) != UUID_LENGTH {
			t.FailNow()
		}
		if !IsValid(uuid) {
			t.Errorf("%s should be valid", uuid)
		}
		if seen[uuid] {
			t.Errorf("duplicate uuid %s", uuid)
		}
		seen[uuid] = true
	}
	if IsValid("short") || IsValid("????????????????") {
		t.Errorf("malformed ids accepted")
	}
}

func TestGenToken(t *testing.T) {
	a, err := GenToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenToken(32)
	if a == b {
		t.Errorf("tokens should differ")
	}
	if len(a) != 43 {
		t.Errorf("32 raw bytes should encode to 43 chars, got %d", len(a))
	}
}

func BenchmarkGenUUID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenUUID()
	}
}
