package domain

import "testing"

func TestNormalizeTopic(t *testing.T) {
	cases := map[string]string{
		"Climate Change":     "climate change",
		"  climate   change": "climate change",
		"CLIMATE\tCHANGE ":   "climate change",
		"":                   "",
		"   ":                "",
	}
	for input, expected := range cases {
		if got := NormalizeTopic(input); got != expected {
			t.Fatalf("для %q ожидали %q, получили %q", input, expected, got)
		}
	}
}

func TestParseSide(t *testing.T) {
	for _, raw := range []string{"A", "a", " a "} {
		side, err := ParseSide(raw)
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", raw, err)
		}
		if side != SideA {
			t.Fatalf("ожидали сторону A для %q", raw)
		}
	}
	if _, err := ParseSide("C"); err == nil {
		t.Fatalf("ожидали ошибку для недопустимой стороны")
	}
	if _, err := ParseSide(""); err == nil {
		t.Fatalf("ожидали ошибку для пустой стороны")
	}
}
