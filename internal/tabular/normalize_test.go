package tabular

import "testing"

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Invoice No", "invoiceno"},
		{"  InvoiceNo ", "invoiceno"},
		{"INVOICE  NO", "invoiceno"},
		{"Consignor\tName", "consignorname"},
		{"", ""},
		{"   ", ""},
		{"Straße", "strasse"},
	}
	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeHeaderDriftMatches(t *testing.T) {
	variants := []string{"Invoice No", "InvoiceNo", "invoice no", " INVOICE NO "}
	want := NormalizeHeader(variants[0])
	for _, v := range variants[1:] {
		if NormalizeHeader(v) != want {
			t.Errorf("header %q does not normalize to %q", v, want)
		}
	}
}
