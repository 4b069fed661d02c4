package wininput

import "testing"

func TestParseCodeForms(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint16
	}{
		{raw: "F6", expected: CodeF6},
		{raw: "vk_f7", expected: CodeF7},
		{raw: "KEY_F7", expected: CodeF7},
		{raw: "F24", expected: 0x87},
		{raw: "a", expected: 0x41},
		{raw: "VK_9", expected: 0x39},
		{raw: "esc", expected: 0x1B},
		{raw: "PageDown", expected: 0x22},
		{raw: "0x75", expected: CodeF6},
	}

	for _, tc := range tests {
		got, err := ParseCode(tc.raw)
		if err != nil {
			t.Fatalf("ParseCode(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.expected {
			t.Fatalf("ParseCode(%q)=%d, want %d", tc.raw, got, tc.expected)
		}
	}
}

func TestParseCodeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "F25", "F0", "HYPER", "0x1FF", "0xFF"} {
		if _, err := ParseCode(raw); err == nil {
			t.Fatalf("ParseCode(%q) expected error", raw)
		}
	}
}

func TestFormatCodeName(t *testing.T) {
	if name := FormatCodeName(CodeF6); name != "VK_F6" {
		t.Fatalf("FormatCodeName(CodeF6)=%q, want VK_F6", name)
	}
	if name := FormatCodeName(0x1B); name != "VK_ESCAPE" {
		t.Fatalf("FormatCodeName(0x1B)=%q, want VK_ESCAPE", name)
	}
	if name := FormatCodeName(0xC0); name != "0xC0" {
		t.Fatalf("FormatCodeName(0xC0)=%q, want 0xC0", name)
	}
}

func TestKnownCodeNamesRoundTrip(t *testing.T) {
	names := KnownCodeNames()
	if len(names) == 0 {
		t.Fatalf("KnownCodeNames() is empty")
	}
	for _, name := range names {
		code, err := ParseCode(name)
		if err != nil {
			t.Fatalf("ParseCode(%q) returned error: %v", name, err)
		}
		if got := FormatCodeName(code); got != name {
			t.Fatalf("FormatCodeName(ParseCode(%q))=%q", name, got)
		}
	}
}

func TestParseBindingsRejectsDuplicates(t *testing.T) {
	if _, err := ParseBindings("F6", "VK_F6"); err == nil {
		t.Fatalf("expected error for identical start and stop keys")
	}
	bindings, err := ParseBindings("F6", "F7")
	if err != nil || bindings != DefaultBindings() {
		t.Fatalf("ParseBindings(F6, F7)=%+v, %v", bindings, err)
	}
}
