package llm

import "testing"

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1]\n```", "[1]"},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseJSONLoose(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"object", `{"a": 1}`, true},
		{"prose around object", `Sure! Here it is: {"a": 1} Hope that helps.`, true},
		{"prose around list", `Result: [1, 2]`, true},
		{"bare string", `"hello"`, true},
		{"garbage", `not json at all`, false},
		{"empty", "   ", false},
		{"unbalanced", `{"a": `, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseJSONLoose(tt.in)
			if ok != tt.ok {
				t.Errorf("parseJSONLoose(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestCoerceToMap(t *testing.T) {
	if m := coerceToMap("hi"); m["text"] != "hi" {
		t.Errorf("string not wrapped: %v", m)
	}
	if m := coerceToMap(float64(3)); m["value"] != float64(3) {
		t.Errorf("number not wrapped: %v", m)
	}
	if m := coerceToMap(nil); len(m) != 0 {
		t.Errorf("nil should give empty map: %v", m)
	}
	obj := map[string]any{"k": "v"}
	if m := coerceToMap(obj); m["k"] != "v" {
		t.Errorf("object changed: %v", m)
	}
}
