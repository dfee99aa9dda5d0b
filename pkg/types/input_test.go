package types

import (
	"errors"
	"testing"
)

func validRequest() CourseRequest {
	return CourseRequest{
		CourseTitle:       "Introduction to Machine Learning",
		CourseDescription: "Supervised and unsupervised learning with Python.",
		AudienceLevel:     LevelUndergraduate,
		AudienceCategory:  CategoryCSMajor,
		LearningMode:      ModeHybrid,
		DepthRequirement:  DepthApplied,
		DurationHours:     40,
	}
}

func TestCourseRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CourseRequest)
		field  string
	}{
		{"valid", func(*CourseRequest) {}, ""},
		{"min hours", func(r *CourseRequest) { r.DurationHours = MinDurationHours }, ""},
		{"max hours", func(r *CourseRequest) { r.DurationHours = MaxDurationHours }, ""},
		{"blank title", func(r *CourseRequest) { r.CourseTitle = "   " }, "course_title"},
		{"empty description", func(r *CourseRequest) { r.CourseDescription = "" }, "course_description"},
		{"unknown level", func(r *CourseRequest) { r.AudienceLevel = "phd" }, "audience_level"},
		{"unknown category", func(r *CourseRequest) { r.AudienceCategory = "" }, "audience_category"},
		{"unknown mode", func(r *CourseRequest) { r.LearningMode = "blended" }, "learning_mode"},
		{"unknown depth", func(r *CourseRequest) { r.DepthRequirement = "deep" }, "depth_requirement"},
		{"zero hours", func(r *CourseRequest) { r.DurationHours = 0 }, "duration_hours"},
		{"too many hours", func(r *CourseRequest) { r.DurationHours = MaxDurationHours + 1 }, "duration_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestExecutionContextChannels(t *testing.T) {
	req := validRequest()
	ec := &ExecutionContext{Request: &req}
	if ec.ChannelCount() != 0 {
		t.Fatalf("empty context has %d channels", ec.ChannelCount())
	}

	ec.PDFText = "  \n "
	if ec.HasPDFText() {
		t.Error("blank PDF text counted as a channel")
	}

	ec.PDFText = "Week 1: regression"
	ec.RetrievedDocs = []RetrievedDocument{{Title: "Regression notes"}}
	ec.WebResults = &WebSearchResults{}
	if ec.HasWebResults() {
		t.Error("empty web result set counted as a channel")
	}
	if got := ec.ChannelCount(); got != 2 {
		t.Errorf("ChannelCount() = %d, want 2", got)
	}

	ec.WebResults.Results = []WebResult{{Title: "ML course", URL: "https://example.com"}}
	if got := ec.ChannelCount(); got != 3 {
		t.Errorf("ChannelCount() = %d, want 3", got)
	}
}
