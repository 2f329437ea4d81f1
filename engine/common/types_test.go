package common

import "testing"

func TestProfileID(t *testing.T) {
	pid := GenProfileID()
	if len(pid) != PROFILEID_LENGTH {
		t.Fail()
	}
	if pid.IsNil() || !pid.IsValid() {
		t.Fail()
	}
	if !ProfileID("").IsNil() {
		t.Fail()
	}
	if ProfileID("../../etc/passwd").IsValid() {
		t.Fail()
	}
}

func TestClientID(t *testing.T) {
	if !ClientID("").IsNil() {
		t.Fail()
	}
	cid := GenClientID()
	if cid.IsNil() {
		t.Fail()
	}
	if len(cid) != CLIENTID_LENGTH {
		t.Fail()
	}
}
