package idhash

import "testing"

func TestComputeDeliveryID(t *testing.T) {
	body := []byte(`[{"signature":"abc","tokenTransfers":[]}]`)

	id1 := ComputeDeliveryID(body)
	id2 := ComputeDeliveryID(append([]byte(nil), body...))

	if len(id1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id1))
	}
	if id1 != id2 {
		t.Error("identical bodies must share an id")
	}
	if id1 == ComputeDeliveryID([]byte(`[]`)) {
		t.Error("different bodies must not share an id")
	}

	// sha256("")
	if got := ComputeDeliveryID(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected digest of empty body: %s", got)
	}
}

func TestShortMint(t *testing.T) {
	tests := []struct {
		mint string
		want string
	}{
		{"So11111111111111111111111111111111111111112", "So11…1112"},
		{"ABCDEFGH", "ABCDEFGH"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ShortMint(tc.mint); got != tc.want {
			t.Errorf("ShortMint(%q) = %q, want %q", tc.mint, got, tc.want)
		}
	}
}
