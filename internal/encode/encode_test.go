package encode

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain identifier", "foo", "foo"},
		{"underscore identifier", "_bar", "_bar"},
		{"trailing prime", "x'", "XP1x"},
		{"multiple primes", "x''", "XP2x"},
		{"operator plus", "+", "XOp"},
		{"operator cons", ":", "XOi"},
		{"operator compound", "<*>", "XOltg"},
		{"operator bind", ">>=", "XOggq"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode(%q) error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Encode(%q) = %q, want %q", tc.in, got, tc.want)
			}
			back, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", got, err)
			}
			if back != tc.in {
				t.Fatalf("Decode(Encode(%q)) = %q, want %q", tc.in, back, tc.in)
			}
		})
	}
}

func TestEncodeRejectsUnencodableOperator(t *testing.T) {
	if _, err := Encode("+~!"); err != nil {
		t.Fatalf("unexpected error for fully-encodable operator: %v", err)
	}
	if _, err := Encode("+§"); err == nil {
		t.Fatalf("expected ErrUnencodable for a character outside the 21-entry table")
	} else if _, ok := err.(*ErrUnencodable); !ok {
		t.Fatalf("expected *ErrUnencodable, got %T", err)
	}
}
