package value

import "testing"

func TestAsNumberCoercion(t *testing.T) {
	cases := []struct {
		name string
		v    V
		want float64
		ok   bool
	}{
		{"number", Number(3.5), 3.5, true},
		{"numeric string", String("42"), 42, true},
		{"non-numeric string", String("bd"), 0, false},
		{"true", Bool(true), 1, true},
		{"false", Bool(false), 0, true},
		{"list", List([]V{Number(1)}), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.v.AsNumber()
			if ok != tc.ok || (ok && got != tc.want) {
				t.Fatalf("AsNumber(%v) = (%v,%v), want (%v,%v)", tc.v, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    V
		want bool
	}{
		{"zero", Number(0), false},
		{"nonzero", Number(1), true},
		{"empty string", String(""), false},
		{"tilde", String("~"), false},
		{"word", String("bd"), true},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"empty list", List(nil), false},
		{"nonempty list", List([]V{Number(1)}), true},
		{"empty map", Map(map[string]V{}), false},
		{"nonempty map", MapOf("n", Number(1)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.Truthy(); got != tc.want {
				t.Fatalf("Truthy(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestMergeLeftRightBias(t *testing.T) {
	a := MapOf("n", Number(1), "s", String("bd"))
	b := MapOf("n", Number(2), "gain", Number(0.5))

	left := MergeLeft(a, b)
	if n, _ := left.Map["n"].AsNumber(); n != 1 {
		t.Fatalf("MergeLeft should keep left's n=1, got %v", n)
	}
	if _, ok := left.Map["gain"]; !ok {
		t.Fatal("MergeLeft should carry over b's non-colliding keys")
	}

	right := MergeRight(a, b)
	if n, _ := right.Map["n"].AsNumber(); n != 2 {
		t.Fatalf("MergeRight should keep right's n=2, got %v", n)
	}
}

func TestMergeScalarsPromoteToValueKey(t *testing.T) {
	merged := MergeLeft(Number(1), Number(2))
	if merged.Kind != KindMap {
		t.Fatal("merging two scalars should produce a Map")
	}
	if n, _ := merged.Map["value"].AsNumber(); n != 1 {
		t.Fatalf("left-biased merge of scalars should keep left's value, got %v", n)
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Number(1), Number(1)) {
		t.Fatal("equal numbers should be Equal")
	}
	if Equal(Number(1), Number(2)) {
		t.Fatal("different numbers should not be Equal")
	}
	if !Equal(MapOf("a", Number(1)), MapOf("a", Number(1))) {
		t.Fatal("structurally identical maps should be Equal")
	}
	if Equal(MapOf("a", Number(1)), MapOf("a", Number(2))) {
		t.Fatal("maps differing by value should not be Equal")
	}
	if Equal(Number(1), String("1")) {
		t.Fatal("different kinds should never be Equal")
	}
}

func TestWithKey(t *testing.T) {
	base := String("bd")
	withN := base.WithKey("n", Number(3))
	if withN.Kind != KindMap {
		t.Fatal("WithKey should promote a scalar to a Map")
	}
	if withN.Map["value"].Str != "bd" {
		t.Fatal("WithKey should preserve the original scalar under 'value'")
	}
	if n, _ := withN.Map["n"].AsNumber(); n != 3 {
		t.Fatalf("WithKey should set n=3, got %v", n)
	}
}

func TestAsString(t *testing.T) {
	cases := []struct {
		name string
		v    V
		want string
	}{
		{"number", Number(3), "3"},
		{"string", String("bd"), "bd"},
		{"bool", Bool(true), "true"},
		{"list", List([]V{Number(1), Number(2)}), "[1, 2]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.AsString(); got != tc.want {
				t.Fatalf("AsString(%v) = %q, want %q", tc.v, got, tc.want)
			}
		})
	}
}
