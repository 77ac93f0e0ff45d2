package validate

import "testing"

func TestUsername(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"john.doe_1", true},
		{"ab", false},
		{"abc", true},
		{"Mary Ann", true},
		{"abcdefghijklmnopqrst", true},
		{"abcdefghijklmnopqrstu", false},
		{".john", false},
		{"john.", false},
		{"_john", false},
		{"john_", false},
		{" john", false},
		{"john ", false},
		{"jo..hn", false},
		{"jo__hn", false},
		{"jo._hn", false},
		{"jo_.hn", false},
		{"jo-hn", false},
		{"a' OR '1'='1", false},
		{"jöhn", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := Username(tc.in); got != tc.want {
			t.Fatalf("Username(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEmail(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user@example.com", true},
		{"first.last+tag@mail.example.org", true},
		{"user@example", false},
		{"userexample.com", false},
		{"user@@example.com", false},
		{"us@er@example.com", false},
		{"@example.com", false},
		{"user@.com", true},
		{"user@example.", true},
		{"user@", false},
		{"user@.", true},
		{"us er@example.com", false},
		{"user@exa mple.com", false},
		{"user@example.com\n", false},
		{"us\ver@example.com", false},
		{"us\u00a0er@example.com", false},
		{"user@exa\u2003mple.com", false},
		{"user@example.com\u3000", false},
		{"\u0085user@example.com", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := Email(tc.in); got != tc.want {
			t.Fatalf("Email(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"Password1!", true},
		{"password1", false},
		{"PASSWORD1!", false},
		{"Password!!", false},
		{"Password11", false},
		{"Pass1!", false},
		{"Password1_", false},
		{"Password1 ", false},
		{"Pässword1", true},
		{"Abcdef1#", true},
		{"", false},
	}

	for _, tc := range cases {
		if got := Password(tc.in); got != tc.want {
			t.Fatalf("Password(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPasswordCountsCharactersNotBytes(t *testing.T) {
	// Seven characters, more than eight bytes.
	if Password("Aé1!ééé") {
		t.Fatal("expected seven-character password to be rejected")
	}
}
