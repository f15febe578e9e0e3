package attendance

import "testing"

func TestLocate(t *testing.T) {
	rows := [][]string{
		Header,
		{"2024-01-09", "Tue", "--", "2024-01-09 08:00:00", "2024-01-09 16:00:00", "8", ""},
		{"2024-01-10", "Wed", "--", "2024-01-10 08:00:00", "", "", ""},
		{"2024-01-10", "Wed", "dup", "2024-01-10 09:00:00", "", "", ""},
		{},
	}

	position, ok := Locate(rows, "2024-01-10")
	if !ok || position != 3 {
		t.Fatalf("expected first match at position 3, got %d (ok=%v)", position, ok)
	}

	if _, ok := Locate(rows, "2024-01-11"); ok {
		t.Fatal("expected no match for missing date")
	}

	if _, ok := Locate(nil, "2024-01-10"); ok {
		t.Fatal("expected no match on empty ledger")
	}
}
