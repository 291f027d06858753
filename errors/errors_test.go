package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseParse,
				Kind:      KindTypeMismatch,
				Path:      []string{"object", "prop[2]"},
				Offset:    64,
				HasOffset: true,
				Want:      "Int",
				Got:       "String",
				Detail:    "cannot extract",
			},
			contains: []string{"[parse]", "type_mismatch", "object.prop[2]", "@64", "want Int", "got String", "cannot extract"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseBuild,
				Kind:  KindOverflow,
			},
			contains: []string{"[build]", "overflow"},
		},
		{
			name:     "sentinel has no phase prefix",
			err:      ErrEndOfData,
			contains: []string{"end_of_data"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseRing,
				Kind:   KindOutOfRange,
				Detail: "storage read",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[ring]", "out_of_range", "storage read", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRing,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseParse,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseParse, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBuild, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseParse, Kind: KindEndOfData}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Error("errors.Is should match the phase-less sentinel")
	}
	if errors.Is(err, ErrFrameMismatch) {
		t.Error("errors.Is should not match another kind's sentinel")
	}
	if err.Is(errors.New("type_mismatch")) {
		t.Error("Is should not match foreign error types")
	}
}

func TestError_IsThroughWrap(t *testing.T) {
	inner := Overflow(PhaseBuild, 8, 16, 8)
	outer := Wrap(PhaseSerialize, KindInvalidData, inner, "serialize struct")
	if !errors.Is(outer, ErrOverflow) {
		t.Error("errors.Is should find the wrapped overflow")
	}
	var target *Error
	if !errors.As(outer, &target) || target.Kind != KindInvalidData {
		t.Errorf("errors.As returned %v", target)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseParse, KindTypeMismatch).
		Path("struct", "field[1]").
		At(24).
		Want("Long").
		Got("Int").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "Long", "Int").
		Build()

	if err.Phase != PhaseParse {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseParse)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "struct" || err.Path[1] != "field[1]" {
		t.Errorf("Path = %v, want [struct field[1]]", err.Path)
	}
	if !err.HasOffset || err.Offset != 24 {
		t.Errorf("Offset = %d (set %v), want 24", err.Offset, err.HasOffset)
	}
	if err.Want != "Long" || err.Got != "Int" {
		t.Errorf("Want=%v Got=%v", err.Want, err.Got)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected Long, got Int" {
		t.Errorf("Detail = %v, want 'expected Long, got Int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseBuild, 16, 24, 32)
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != uint32(24) {
			t.Errorf("Value = %v, want 24", err.Value)
		}
		if !strings.Contains(err.Detail, "capacity 32") {
			t.Errorf("Detail = %v, should contain capacity", err.Detail)
		}
	})

	t.Run("EndOfData", func(t *testing.T) {
		err := EndOfData(PhaseParse, 40, 40)
		if err.Kind != KindEndOfData || err.Offset != 40 {
			t.Errorf("Kind=%v Offset=%d", err.Kind, err.Offset)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseParse, "Bool", "Id")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.Want != "Bool" || err.Got != "Id" {
			t.Errorf("Want=%v Got=%v", err.Want, err.Got)
		}
	})

	t.Run("FrameMismatch", func(t *testing.T) {
		err := FrameMismatch(PhaseBuild, 8, 32, 2)
		if err.Kind != KindFrameMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFrameMismatch)
		}
		if !strings.Contains(err.Detail, "depth 2") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		err := InvalidState(PhaseBuild, "prop outside object")
		if err.Kind != KindInvalidState {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidState)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		err := OutOfRange(PhaseBuild, 100, 64)
		if err.Kind != KindOutOfRange {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfRange)
		}
		if err.Value != uint32(100) {
			t.Errorf("Value = %v, want 100", err.Value)
		}
	})

	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseDeserialize, []string{"array"}, "child size 0")
		if err.Kind != KindInvalidData || len(err.Path) != 1 {
			t.Errorf("Kind=%v Path=%v", err.Kind, err.Path)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseSerialize, "pointer values")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseConfig, "object type", "Format")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, `"Format"`) {
			t.Errorf("Kind=%v Detail=%v", err.Kind, err.Detail)
		}
	})
}
