package h2

import "testing"

func TestParseDirectivesDefaults(t *testing.T) {
	limits, bodyLine, body, errs := parseDirectives("srl")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if limits != DefaultLimits() {
		t.Fatalf("expected default limits, got %+v", limits)
	}
	if bodyLine != 1 {
		t.Fatalf("expected body to start at line 1, got %d", bodyLine)
	}
	if body != "srl" {
		t.Fatalf("expected body %q, got %q", "srl", body)
	}
}

func TestParseDirectivesOverride(t *testing.T) {
	src := "MAX_STEP=3\nON_LIMIT=TRUNCATE\na(X):sa(X-1) a(1000)"
	limits, bodyLine, body, errs := parseDirectives(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if limits.MaxStep != 3 {
		t.Fatalf("expected MaxStep=3, got %d", limits.MaxStep)
	}
	if limits.OnLimit != OnLimitTruncate {
		t.Fatalf("expected OnLimit=TRUNCATE, got %v", limits.OnLimit)
	}
	if bodyLine != 3 {
		t.Fatalf("expected body to start at line 3, got %d", bodyLine)
	}
	if body != "a(X):sa(X-1) a(1000)" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestParseDirectivesLastWins(t *testing.T) {
	src := "MAX_STEP=5\nMAX_STEP=9\nsrl"
	limits, _, _, errs := parseDirectives(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if limits.MaxStep != 9 {
		t.Fatalf("expected the second MAX_STEP to win, got %d", limits.MaxStep)
	}
}

func TestParseDirectivesUnknownName(t *testing.T) {
	_, _, _, errs := parseDirectives("MAX_MEMORY=10\nsrl")
	if len(errs) != 1 || errs[0].Code != CodeInvalidDirective {
		t.Fatalf("expected one E009 error, got %v", errs)
	}
}

func TestParseDirectivesOutOfRange(t *testing.T) {
	_, _, _, errs := parseDirectives("MAX_STEP=0\nsrl")
	if len(errs) != 1 || errs[0].Code != CodeInvalidDirective {
		t.Fatalf("expected one E009 error for out-of-range MAX_STEP, got %v", errs)
	}
}

func TestParseDirectivesOnLimitInvalidValue(t *testing.T) {
	_, _, _, errs := parseDirectives("ON_LIMIT=MAYBE\nsrl")
	if len(errs) != 1 || errs[0].Code != CodeInvalidDirective {
		t.Fatalf("expected one E009 error for invalid ON_LIMIT, got %v", errs)
	}
}

func TestParseDirectivesWithTrailingHashComment(t *testing.T) {
	limits, bodyLine, body, errs := parseDirectives("MAX_STEP=5 # step limit\nsrl")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if limits.MaxStep != 5 {
		t.Fatalf("expected MaxStep=5, got %d", limits.MaxStep)
	}
	if bodyLine != 2 || body != "srl" {
		t.Fatalf("expected body %q starting at line 2, got line=%d body=%q", "srl", bodyLine, body)
	}
}

func TestParseDirectivesWithTrailingSlashSlashComment(t *testing.T) {
	limits, _, _, errs := parseDirectives("ON_LIMIT=TRUNCATE // truncate on overflow\nsrl")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if limits.OnLimit != OnLimitTruncate {
		t.Fatalf("expected OnLimit=TRUNCATE, got %v", limits.OnLimit)
	}
}

func TestParseDirectivesStopAtFirstNonDirectiveLine(t *testing.T) {
	// A line that merely looks like it could continue the prologue but
	// isn't NAME=VALUE ends the prologue, even if it also contains '='.
	src := "MAX_STEP=10\na(X):X=1"
	_, bodyLine, body, errs := parseDirectives(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if bodyLine != 2 || body != "a(X):X=1" {
		t.Fatalf("expected prologue to stop before line 2, got line=%d body=%q", bodyLine, body)
	}
}
