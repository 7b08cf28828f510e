package bind_group_provider

import "testing"

func TestProviderFits(t *testing.T) {
	p := NewBindGroupProvider("cull")
	if p.Label() != "cull" {
		t.Errorf("label = %q", p.Label())
	}
	if p.Fits(0, 1) {
		t.Error("an unset binding must not fit")
	}
	if p.BufferSize(3) != 0 || p.Buffer(3) != nil {
		t.Error("expected an empty binding")
	}
	p.Release()
	if len(p.Buffers()) != 0 {
		t.Error("release left buffers behind")
	}
}

func TestExtents(t *testing.T) {
	a := NewBindGroupProvider("a")
	b := NewBindGroupProvider("b")
	got := Extents([]BufferWrite{
		{Provider: a, Binding: 0, Data: make([]byte, 176)},
		{Provider: a, Binding: 1, Offset: 64, Data: make([]byte, 16)},
		{Provider: a, Binding: 1, Data: make([]byte, 32)},
		{Provider: b, Binding: 1, Data: make([]byte, 8)},
	})
	if got[a][0] != 176 || got[a][1] != 80 || got[b][1] != 8 {
		t.Errorf("unexpected extents %v", got)
	}
}
