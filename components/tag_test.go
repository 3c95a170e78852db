package components

import "testing"

func TestTagRoundTrip(t *testing.T) {
	tests := []struct {
		kind Kind
		id   uint32
	}{
		{KindPlanet, 0},
		{KindTank, 1},
		{KindShell, 1<<24 - 1},
		{Kind(15), 12345},
	}
	for _, tc := range tests {
		tag := MakeTag(tc.kind, tc.id)
		if tag.Kind() != tc.kind || tag.ID() != tc.id {
			t.Errorf("MakeTag(%v, %d) decoded to (%v, %d)", tc.kind, tc.id, tag.Kind(), tag.ID())
		}
	}
	if s := MakeTag(KindShell, 42).String(); s != "shell#42" {
		t.Errorf("String() = %q, want shell#42", s)
	}
}

func TestTagOverflowPanics(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		id   uint32
	}{
		{"id", KindTank, 1 << 24},
		{"kind", Kind(16), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("MakeTag(%d, %d) did not panic", tc.kind, tc.id)
				}
			}()
			MakeTag(tc.kind, tc.id)
		})
	}
}
