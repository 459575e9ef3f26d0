package utils

import "testing"

func TestFingerprint(t *testing.T) {
	// Одинаковые параметры дают одинаковый отпечаток
	a := Fingerprint("deposit", "1", "100", "зарплата")
	b := Fingerprint("deposit", "1", "100", "зарплата")
	if a != b {
		t.Error("identical parts produced different fingerprints")
	}

	// Разные параметры дают разные отпечатки
	if a == Fingerprint("withdraw", "1", "100", "зарплата") {
		t.Error("different operation produced same fingerprint")
	}
	if a == Fingerprint("deposit", "1", "200", "зарплата") {
		t.Error("different amount produced same fingerprint")
	}

	// Разделитель исключает склейку соседних частей
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Error("part boundaries are ambiguous")
	}
}

func TestHMACSignVerify(t *testing.T) {
	signature := HMACSign("payload", "key")

	if !HMACVerify("payload", "key", signature) {
		t.Error("valid signature rejected")
	}
	if HMACVerify("payload", "other-key", signature) {
		t.Error("signature accepted with wrong key")
	}
	if HMACVerify("other-payload", "key", signature) {
		t.Error("signature accepted for wrong payload")
	}
}
