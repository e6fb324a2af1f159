package collect

import "testing"

func TestURLConfidence(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		linkText string
		min, max float64
	}{
		{
			name: "strong post-op url",
			url:  "https://hospital.example.org/patient/post-op-discharge-instructions.pdf",
			min:  0.7, max: 1.0,
		},
		{
			name:     "link text carries the signal",
			url:      "https://example.com/files/1234.pdf",
			linkText: "Post-operative care instructions for knee surgery patients",
			min:      0.5, max: 1.0,
		},
		{
			name: "unrelated url",
			url:  "https://example.com/blog/quarterly-earnings.pdf",
			min:  0, max: 0.1,
		},
		{
			name: "gov domain gets a bonus",
			url:  "https://medlineplus.gov/surgery.pdf",
			min:  0.2, max: 0.4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := URLConfidence(tt.url, tt.linkText)
			if got < tt.min || got > tt.max {
				t.Errorf("URLConfidence = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestURLConfidence_clamped(t *testing.T) {
	url := "https://hospital.example.org/post-op-postop-discharge-aftercare-patient-care-recovery-instructions.pdf"
	if got := URLConfidence(url, "post-operative handout education"); got > 1 {
		t.Errorf("confidence should clamp at 1, got %v", got)
	}
}
