package rabbitmq

import "testing"

func TestMatchRoutingKey(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"part.*", "part.created", true},
		{"part.*", "part.created.extra", false},
		{"part.*", "part", false},
		{"part.*", "repair.opened", false},
		{"repair.#", "repair", true},
		{"repair.#", "repair.opened", true},
		{"repair.#", "repair.opened.urgent", true},
		{"repair.#", "part.created", false},
		{"repair.#", "repairs.opened", false},
		{"#", "anything.at.all", true},
		{"#.urgent", "repair.opened.urgent", true},
		{"#.urgent", "urgent", true},
		{"#.urgent", "repair.opened", false},
		{"*.created", "part.created", true},
		{"*.created", "created", false},
		{"repair.#.urgent", "repair.urgent", true},
		{"repair.#.urgent", "repair.a.b.urgent", true},
		{"repair.#.#", "repair", true},
		{"part.created", "part.created", true},
		{"part.created", "part.updated", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.key, func(t *testing.T) {
			if got := MatchRoutingKey(tt.pattern, tt.key); got != tt.want {
				t.Errorf("MatchRoutingKey(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
			}
		})
	}
}

// The two configured bindings must split traffic the way the exchange does.
func TestConfiguredPatternsRouteIndependently(t *testing.T) {
	const partPattern, repairPattern = "part.*", "repair.#"

	tests := []struct {
		key            string
		toPart, toRepr bool
	}{
		{"part.created", true, false},
		{"part.created.extra", false, false},
		{"repair.opened.urgent", false, true},
		{"repair.closed", false, true},
	}

	for _, tt := range tests {
		if got := MatchRoutingKey(partPattern, tt.key); got != tt.toPart {
			t.Errorf("%s to part-events = %v, want %v", tt.key, got, tt.toPart)
		}
		if got := MatchRoutingKey(repairPattern, tt.key); got != tt.toRepr {
			t.Errorf("%s to repair-events = %v, want %v", tt.key, got, tt.toRepr)
		}
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"part.*", "repair.#", "#", "a.b.c"}
	for _, p := range valid {
		if err := ValidatePattern(p); err != nil {
			t.Errorf("ValidatePattern(%q) unexpected error: %v", p, err)
		}
	}

	invalid := []string{"", "part.cre*", "re#pair.x"}
	for _, p := range invalid {
		if err := ValidatePattern(p); err == nil {
			t.Errorf("ValidatePattern(%q) expected error", p)
		}
	}
}
