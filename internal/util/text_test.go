package util

import "testing"

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  Engine\tnoise  ":          "Engine noise",
		"Line one_x000D_\nline two": "Line one line two",
		"Driverâ€™s door":           "Driver's door",
		"ｆｕｌｌ width":               "full width",
		"a\u00a0\u00a0b":             "a b",
	}
	for in, want := range cases {
		if got := CleanText(in); got != want {
			t.Fatalf("CleanText(%q) = %q want %q", in, got, want)
		}
	}
}

func TestHeaderKey(t *testing.T) {
	if HeaderKey(" WO  No ") != "wo no" {
		t.Fatalf("got %q", HeaderKey(" WO  No "))
	}
}

func TestFoldText(t *testing.T) {
	if got := FoldText("Pneumático DÉFAUT"); got != "pneumatico defaut" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		" wo-1234 ":  "WO-1234",
		"12345.0":    "12345",
		"KL 2024/77": "KL2024/77",
		"#A.B_9":     "AB9",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Fatalf("NormalizeCode(%q) = %q want %q", in, got, want)
		}
	}
}
