package domain

import (
	"errors"
	"testing"
)

// Error tests

func TestDomainError_Error(t *testing.T) {
	// Without cause
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	expected := "[TEST_ERROR] Test message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	// With cause
	errWithCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   errors.New("underlying error"),
	}
	expectedWithCause := "[TEST_ERROR] Test message: underlying error"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected '%s', got '%s'", expectedWithCause, errWithCause.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewArtifactError("report.json", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}

	var de DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should find the DomainError")
	}
	if de.Code != ErrCodeArtifactError {
		t.Errorf("Expected code %s, got %s", ErrCodeArtifactError, de.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"invalid input", NewInvalidInputError("bad", nil), ErrCodeInvalidInput, "bad"},
		{"file not found", NewFileNotFoundError("a.json", nil), ErrCodeFileNotFound, "file not found: a.json"},
		{"parse", NewParseError("a.json", nil), ErrCodeParseError, "failed to parse a.json"},
		{"analysis", NewAnalysisError("none parsed", nil), ErrCodeAnalysisError, "none parsed"},
		{"config", NewConfigError("bad config", nil), ErrCodeConfigError, "bad config"},
		{"output", NewOutputError("cannot write", nil), ErrCodeOutputError, "cannot write"},
		{"format", NewUnsupportedFormatError("xml"), ErrCodeUnsupportedFormat, "unsupported format: xml"},
		{"artifact", NewArtifactError("r.json", nil), ErrCodeArtifactError, "artifact r.json"},
		{"tool", NewToolError("bandit", nil), ErrCodeToolError, "tool bandit failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de DomainError
			if !errors.As(tt.err, &de) {
				t.Fatalf("Expected DomainError, got %T", tt.err)
			}
			if de.Code != tt.code {
				t.Errorf("Code = %s, want %s", de.Code, tt.code)
			}
			if de.Message != tt.message {
				t.Errorf("Message = %q, want %q", de.Message, tt.message)
			}
		})
	}
}

// Output format tests

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputFormatText, false},
		{"json", OutputFormatJSON, false},
		{"yaml", OutputFormatYAML, false},
		{"", OutputFormatText, false},
		{"html", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// Gate tests

func TestGateThreshold_Satisfied(t *testing.T) {
	lower := GateThreshold{Value: 0.85, Direction: DirectionMin}
	upper := GateThreshold{Value: 5, Direction: DirectionMax}

	tests := []struct {
		name      string
		threshold GateThreshold
		metric    float64
		want      bool
	}{
		{"min above", lower, 0.9, true},
		{"min equal", lower, 0.85, true},
		{"min below", lower, 0.8, false},
		{"max below", upper, 3, true},
		{"max equal", upper, 5, true},
		{"max above", upper, 6, false},
	}
	for _, tt := range tests {
		if got := tt.threshold.Satisfied(tt.metric); got != tt.want {
			t.Errorf("%s: Satisfied(%v) = %v, want %v", tt.name, tt.metric, got, tt.want)
		}
	}

	if pass, fail := lower.Operators(); pass != ">=" || fail != "<" {
		t.Errorf("min operators = %s %s", pass, fail)
	}
	if pass, fail := upper.Operators(); pass != "<=" || fail != ">" {
		t.Errorf("max operators = %s %s", pass, fail)
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		value  float64
		format MetricFormat
		want   string
	}{
		{0.8, FormatPercent, "80.00%"},
		{0.8567, FormatPercent, "85.67%"},
		{3, FormatCount, "3"},
		{0.5, FormatCount, "0.5"},
		{0, FormatCount, "0"},
		{2.5, FormatDecimal, "2.50"},
	}
	for _, tt := range tests {
		if got := FormatMetric(tt.value, tt.format); got != tt.want {
			t.Errorf("FormatMetric(%v, %s) = %s, want %s", tt.value, tt.format, got, tt.want)
		}
	}
}

func TestExitPolicy(t *testing.T) {
	results := []GateResult{
		{Name: "passed", Passed: true, Outcome: OutcomeOK},
		{Name: "degraded", Passed: false, Outcome: OutcomeDegraded},
		{Name: "unavailable", Passed: false, Outcome: OutcomeUnavailable},
	}
	failing := append(results, GateResult{Name: "failed", Passed: false, Outcome: OutcomeOK})

	tests := []struct {
		name    string
		policy  ExitPolicy
		results []GateResult
		want    int
	}{
		{"default ignores degraded and unavailable", ExitPolicy{}, results, ExitPass},
		{"fail on degraded", ExitPolicy{FailOnDegraded: true}, results, ExitFail},
		{"fail on unavailable", ExitPolicy{FailOnUnavailable: true}, results, ExitFail},
		{"ok failure blocks", ExitPolicy{}, failing, ExitFail},
		{"advisory never blocks", ExitPolicy{Advisory: true, FailOnDegraded: true}, failing, ExitPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.ExitCode(tt.results); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []GateResult{
		{Passed: true, Outcome: OutcomeOK},
		{Passed: true, Outcome: OutcomeDegraded},
		{Passed: false, Outcome: OutcomeDegraded},
		{Passed: false, Outcome: OutcomeUnavailable},
		{Passed: false, Outcome: OutcomeOK},
	}

	s := Summarize(results, ExitPolicy{FailOnUnavailable: true})
	want := CheckSummary{
		TotalGates:       5,
		PassedGates:      2,
		FailedGates:      3,
		DegradedGates:    2,
		UnavailableGates: 1,
		BlockingGates:    2,
	}
	if s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
}

func TestArtifactResult_Available(t *testing.T) {
	tests := []struct {
		name string
		res  ArtifactResult
		want bool
	}{
		{"ok", ArtifactResult{Status: OutcomeOK, Data: map[string]any{}}, true},
		{"degraded", ArtifactResult{Status: OutcomeDegraded, Data: map[string]any{"fallback": true}}, true},
		{"unavailable", ArtifactResult{Status: OutcomeUnavailable}, false},
		{"nil data", ArtifactResult{Status: OutcomeOK}, false},
	}
	for _, tt := range tests {
		if got := tt.res.Available(); got != tt.want {
			t.Errorf("%s: Available() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
