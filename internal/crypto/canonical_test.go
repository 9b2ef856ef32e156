package crypto

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		fields  ParameterSet
		exclude []string
		want    string
	}{
		{
			name:    "excludes exactly the requested names",
			fields:  ParameterSet{"a": "1", "sign": "x"},
			exclude: []string{"sign"},
			want:    "a=1",
		},
		{
			name:   "sorts by ascending byte order",
			fields: ParameterSet{"partner_id": "P123", "biz_content": "abc", "charset": "UTF-8"},
			want:   "biz_content=abc&charset=UTF-8&partner_id=P123",
		},
		{
			name:   "byte order is not locale aware - uppercase sorts first",
			fields: ParameterSet{"alpha": "1", "Zeta": "2"},
			want:   "Zeta=2&alpha=1",
		},
		{
			name:    "excluding an absent name is a no-op",
			fields:  ParameterSet{"a": "1"},
			exclude: []string{"sign", "sign_type"},
			want:    "a=1",
		},
		{
			name:   "values are used raw without URL encoding",
			fields: ParameterSet{"subject": "coffee & cake", "timestamp": "2024-01-02 10:20:30"},
			want:   "subject=coffee & cake&timestamp=2024-01-02 10:20:30",
		},
		{
			name:   "empty set yields empty string",
			fields: ParameterSet{},
			want:   "",
		},
		{
			name:   "empty values are kept",
			fields: ParameterSet{"a": "", "b": "2"},
			want:   "a=&b=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.fields, tt.exclude...)
			if got != tt.want {
				t.Errorf("Canonicalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

// canonicalization must be a pure function of the name/value pairs - maps
// populated in different orders produce identical output
func TestCanonicalize_InsertionOrderIndependent(t *testing.T) {
	first := ParameterSet{}
	first["service"] = "instant_trade"
	first["partner_id"] = "P123"
	first["request_no"] = "abc123"

	second := ParameterSet{}
	second["request_no"] = "abc123"
	second["service"] = "instant_trade"
	second["partner_id"] = "P123"

	a := Canonicalize(first, FieldSign)
	b := Canonicalize(second, FieldSign)
	if a != b {
		t.Errorf("insertion order changed canonical output: %q vs %q", a, b)
	}
}

func TestCanonicalizeForSigning(t *testing.T) {
	fields := ParameterSet{
		"partner_id": "P123",
		"sign":       "SIGVALUE",
		"sign_type":  "RSA",
		"charset":    "UTF-8",
	}

	got := CanonicalizeForSigning(fields)
	want := "charset=UTF-8&partner_id=P123"
	if got != want {
		t.Errorf("CanonicalizeForSigning() = %q, want %q", got, want)
	}
}

// test that CanonicalizeJSON rejects invalid json
func TestCanonicalizeJSON(t *testing.T) {
	// invalid json
	jsonData := []byte(`{"test": "value"`)
	_, err := CanonicalizeJSON(jsonData)
	if err == nil {
		t.Fatalf("CanonicalizeJSON() expected error, got nil")
	}
	t.Logf("CanonicalizeJSON() correctly rejected invalid JSON: %v", err)
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && len(substr) > 0 && stringContains(s, substr)))
}

func stringContains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
