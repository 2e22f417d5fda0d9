package navigation

import (
	"errors"
	"testing"
)

func TestResolveWraparound(t *testing.T) {
	wrap := Policy{Wraparound: true}
	for n := 1; n <= 6; n++ {
		if got := Resolve(0, n, Backward, wrap); got != n-1 {
			t.Fatalf("n=%d backward from 0: expected %d, got %d", n, n-1, got)
		}
		if got := Resolve(n-1, n, Forward, wrap); got != 0 {
			t.Fatalf("n=%d forward from last: expected 0, got %d", n, got)
		}
	}
}

func TestResolveWithoutWraparoundClamps(t *testing.T) {
	policy := Policy{}
	for n := 1; n <= 6; n++ {
		if got := Resolve(0, n, Backward, policy); got != 0 {
			t.Fatalf("n=%d backward from 0: expected 0, got %d", n, got)
		}
		if got := Resolve(n-1, n, Forward, policy); got != n-1 {
			t.Fatalf("n=%d forward from last: expected %d, got %d", n, n-1, got)
		}
	}
}

func TestResolveIgnoreLast(t *testing.T) {
	policy := Policy{Wraparound: true, IgnoreLast: true}
	if got := Resolve(3, 5, Forward, policy); got != 0 {
		t.Fatalf("expected wrap within four workspaces, got %d", got)
	}
	if got := Resolve(0, 5, Backward, policy); got != 3 {
		t.Fatalf("expected backward wrap to 3, got %d", got)
	}
	if got := Resolve(3, 5, Forward, Policy{IgnoreLast: true}); got != 3 {
		t.Fatalf("expected clamp to 3 without wraparound, got %d", got)
	}
}

func TestResolveTable(t *testing.T) {
	tests := []struct {
		name    string
		current int
		count   int
		dir     Direction
		policy  Policy
		want    int
	}{
		{"single workspace forward", 0, 1, Forward, Policy{Wraparound: true}, 0},
		{"single workspace backward", 0, 1, Backward, Policy{}, 0},
		{"zero count", 0, 0, Forward, Policy{Wraparound: true}, 0},
		{"negative count", 3, -2, Backward, Policy{}, 0},
		{"middle forward", 1, 4, Forward, Policy{}, 2},
		{"middle backward", 2, 4, Backward, Policy{}, 1},
		{"ignore last with two", 0, 2, Forward, Policy{Wraparound: true, IgnoreLast: true}, 0},
		{"current beyond shrunk range", 4, 5, Forward, Policy{IgnoreLast: true}, 3},
		{"current beyond shrunk range wraps", 4, 5, Forward, Policy{Wraparound: true, IgnoreLast: true}, 0},
		{"negative current", -3, 4, Forward, Policy{}, 1},
		{"reverse flag does not change arithmetic", 0, 4, Forward, Policy{ReverseOrientation: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.current, tt.count, tt.dir, tt.policy); got != tt.want {
				t.Fatalf("Resolve(%d, %d, %s, %+v) = %d, want %d", tt.current, tt.count, tt.dir, tt.policy, got, tt.want)
			}
		})
	}
}

func TestResolveStaysInRange(t *testing.T) {
	for count := -1; count <= 7; count++ {
		for current := -2; current <= 8; current++ {
			for _, dir := range []Direction{Backward, Forward} {
				for mask := 0; mask < 8; mask++ {
					policy := Policy{Wraparound: mask&1 != 0, IgnoreLast: mask&2 != 0, ReverseOrientation: mask&4 != 0}
					effective := count
					if policy.IgnoreLast {
						effective--
					}
					if effective < 1 {
						effective = 1
					}
					got := Resolve(current, count, dir, policy)
					if got < 0 || got >= effective {
						t.Fatalf("Resolve(%d, %d, %s, %+v) = %d outside [0, %d)", current, count, dir, policy, got, effective)
					}
				}
			}
		}
	}
}

func TestDirectionFor(t *testing.T) {
	tests := []struct {
		compass     Compass
		orientation Orientation
		reverse     bool
		want        Direction
	}{
		{Up, Vertical, false, Backward},
		{Down, Vertical, false, Forward},
		{Left, Horizontal, false, Backward},
		{Right, Horizontal, false, Forward},
		{Left, Horizontal, true, Forward},
		{Right, Horizontal, true, Backward},
		{Up, Horizontal, true, Backward},
		{Up, Vertical, true, Forward},
		{Down, Vertical, true, Backward},
		{Left, Vertical, true, Backward},
	}
	for _, tt := range tests {
		if got := DirectionFor(tt.compass, tt.orientation, tt.reverse); got != tt.want {
			t.Fatalf("DirectionFor(%s, %d, %v) = %s, want %s", tt.compass, tt.orientation, tt.reverse, got, tt.want)
		}
	}
}

func TestParseCompass(t *testing.T) {
	got, err := ParseCompass(" Left ")
	if err != nil || got != Left {
		t.Fatalf("expected Left, got %v, %v", got, err)
	}
	if _, err := ParseCompass("sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

type flags map[string]bool

func (f flags) Bool(name string) (bool, error) {
	value, ok := f[name]
	if !ok {
		return false, errors.New("missing " + name)
	}
	return value, nil
}

func TestNavigatorReadsPolicyEachCall(t *testing.T) {
	source := flags{"wsSwitchWrap": false, "wsSwitchIgnoreLast": false, "reversedWsOrientation": false}
	nav := Navigator{Options: source}

	got, err := nav.Neighbor(3, 4, Right, Horizontal)
	if err != nil || got != 3 {
		t.Fatalf("expected clamp at 3, got %d, %v", got, err)
	}

	source["wsSwitchWrap"] = true
	got, _ = nav.Neighbor(3, 4, Right, Horizontal)
	if got != 0 {
		t.Fatalf("expected wrap to 0 after enabling wraparound, got %d", got)
	}

	source["reversedWsOrientation"] = true
	got, _ = nav.Neighbor(3, 4, Right, Horizontal)
	if got != 2 {
		t.Fatalf("expected reversed right to step backward, got %d", got)
	}
}

func TestNavigatorSurfacesSourceErrors(t *testing.T) {
	nav := Navigator{Options: flags{}}
	if _, err := nav.Neighbor(0, 4, Down, Vertical); err == nil {
		t.Fatalf("expected error from missing flag")
	}
	if _, err := PolicyFrom(nil); err == nil {
		t.Fatalf("expected error from nil source")
	}
}
