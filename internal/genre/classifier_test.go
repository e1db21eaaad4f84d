package genre

import "testing"

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		signals  []string
		expected Bucket
	}{
		{
			name:     "plain genre tag",
			signals:  []string{"Rock"},
			expected: Rock,
		},
		{
			name:     "case insensitive",
			signals:  []string{"ARABIC POP"},
			expected: Arabic,
		},
		{
			name:     "keyword inside longer text",
			signals:  []string{"best of bollywood hits 2020"},
			expected: Bollywood,
		},
		{
			name:     "indian pop beats pop",
			signals:  []string{"Indian Pop"},
			expected: Bollywood,
		},
		{
			name:     "first signal wins over later ones",
			signals:  []string{"sufi", "rock"},
			expected: Sufi,
		},
		{
			name:     "empty signals fall through",
			signals:  []string{"", "edm"},
			expected: Electronic,
		},
		{
			name:     "hip hop maps to pop",
			signals:  []string{"Hip Hop"},
			expected: Pop,
		},
		{
			name:     "metal maps to rock",
			signals:  []string{"Death Metal"},
			expected: Rock,
		},
		{
			name:     "dance maps to electronic",
			signals:  []string{"Dance"},
			expected: Electronic,
		},
		{
			name:     "devotional maps to sufi",
			signals:  []string{"Devotional"},
			expected: Sufi,
		},
		{
			name:     "unknown genre lands in other",
			signals:  []string{"polka"},
			expected: Other,
		},
		{
			name:     "no signals lands in other",
			signals:  nil,
			expected: Other,
		},
		{
			name:     "all empty lands in other",
			signals:  []string{"", "", ""},
			expected: Other,
		},
		{
			name:     "rule order breaks ties within a signal",
			signals:  []string{"chill electronic"},
			expected: Chill,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.signals)
			if got != tc.expected {
				t.Errorf("Classify(%v) = %q, want %q", tc.signals, got, tc.expected)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	signals := []string{"upbeat arabic party mix"}
	first := Classify(signals)
	for i := 0; i < 100; i++ {
		if got := Classify(signals); got != first {
			t.Fatalf("classification changed between runs: %q then %q", first, got)
		}
	}
	// "arabic" precedes "upbeat" and "party" in the rule table
	if first != Arabic {
		t.Errorf("expected Arabic for mixed-keyword signal, got %q", first)
	}
}

func TestIsBucketDir(t *testing.T) {
	for _, b := range Buckets {
		if !IsBucketDir(string(b)) {
			t.Errorf("IsBucketDir(%q) = false, want true", b)
		}
	}

	for _, name := range []string{"Downloads", "pop", "other", ""} {
		if IsBucketDir(name) {
			t.Errorf("IsBucketDir(%q) = true, want false", name)
		}
	}
}
