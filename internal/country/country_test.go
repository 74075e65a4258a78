package country

import "testing"

func TestValid(t *testing.T) {
	for _, code := range []string{"US", "de", "Es", "JP"} {
		if !Valid(code) {
			t.Fatalf("%q should be valid", code)
		}
	}
	// 419 is Latin America, QO an outlying-oceania grouping, ZZ unknown
	for _, code := range []string{"", "U", "USA", "419", "QO", "ZZ", "Narnia", "1A"} {
		if Valid(code) {
			t.Fatalf("%q should be invalid", code)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("de"); got != "Germany" {
		t.Fatalf("name=%q", got)
	}
	if got := Name("Narnia"); got != "" {
		t.Fatalf("name=%q", got)
	}
}
