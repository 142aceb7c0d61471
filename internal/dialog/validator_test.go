package dialog

import (
	"strings"
	"testing"
	"time"

	"github.com/ab7289/dining-concierge/internal/model"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("America/New_York")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	// Pin "now" so date assertions are stable.
	v.Now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, v.Location)
	}
	return v
}

func slot(v string) *model.SlotValue {
	return &model.SlotValue{Raw: v, Interpreted: v}
}

func TestValidate_EmptySlotsAreValid(t *testing.T) {
	v := newTestValidator(t)
	got := v.Validate(model.Slots{})
	if !got.Valid {
		t.Fatalf("empty slot set should validate, got %+v", got)
	}
}

func TestValidate_AllPresentAndValid(t *testing.T) {
	v := newTestValidator(t)
	got := v.Validate(model.Slots{
		Location: slot("New York"),
		Cuisine:  slot("Italian"),
		Date:     slot("2026-09-02"),
		Time:     slot("19:00"),
		Count:    slot("4"),
		Phone:    slot("5551234567"),
		Email:    slot("diner@example.com"),
	})
	if !got.Valid {
		t.Fatalf("expected valid, got %+v", got)
	}
}

func TestValidate_SingleViolations(t *testing.T) {
	v := newTestValidator(t)
	tests := []struct {
		name     string
		slots    model.Slots
		wantSlot string
	}{
		{"unsupported city", model.Slots{Location: slot("Paris")}, model.SlotLocation},
		{"unsupported cuisine", model.Slots{Cuisine: slot("Martian")}, model.SlotCuisine},
		{"unparseable date", model.Slots{Date: slot("whenever")}, model.SlotDate},
		{"past date", model.Slots{Date: slot("2026-08-31")}, model.SlotDate},
		{"same-day date", model.Slots{Date: slot("2026-09-01")}, model.SlotDate},
		{"count below minimum", model.Slots{Count: slot("0")}, model.SlotCount},
		{"count above maximum", model.Slots{Count: slot("9")}, model.SlotCount},
		{"non-numeric count", model.Slots{Count: slot("several")}, model.SlotCount},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Validate(tc.slots)
			if got.Valid {
				t.Fatalf("expected invalid, got valid")
			}
			if got.ViolatedSlot != tc.wantSlot {
				t.Fatalf("violated slot = %q, want %q", got.ViolatedSlot, tc.wantSlot)
			}
			if got.Message == "" {
				t.Fatal("invalid verdict must carry a message")
			}
		})
	}
}

func TestValidate_PriorityOrderFirstViolationWins(t *testing.T) {
	v := newTestValidator(t)
	// Location, cuisine, date, and count are all invalid; location is checked
	// first so it must be the one named.
	got := v.Validate(model.Slots{
		Location: slot("Paris"),
		Cuisine:  slot("Martian"),
		Date:     slot("nonsense"),
		Count:    slot("40"),
	})
	if got.Valid || got.ViolatedSlot != model.SlotLocation {
		t.Fatalf("expected Location violation first, got %+v", got)
	}

	// With a valid location, cuisine is next in priority.
	got = v.Validate(model.Slots{
		Location: slot("Boston"),
		Cuisine:  slot("Martian"),
		Count:    slot("40"),
	})
	if got.Valid || got.ViolatedSlot != model.SlotCuisine {
		t.Fatalf("expected Cuisine violation next, got %+v", got)
	}
}

func TestValidate_CityAndCuisineCaseInsensitive(t *testing.T) {
	v := newTestValidator(t)
	got := v.Validate(model.Slots{Location: slot("NEW YORK"), Cuisine: slot("iTaLiAn")})
	if !got.Valid {
		t.Fatalf("case-insensitive match failed: %+v", got)
	}
}

func TestValidate_UnsupportedCityMessageNamesCity(t *testing.T) {
	v := newTestValidator(t)
	got := v.Validate(model.Slots{Location: slot("Paris")})
	if got.Valid {
		t.Fatal("expected invalid")
	}
	if want := "Paris"; !strings.Contains(got.Message, want) {
		t.Fatalf("message %q does not mention %q", got.Message, want)
	}
}

func TestValidate_PartySizeBoundaries(t *testing.T) {
	v := newTestValidator(t)
	for _, n := range []string{"1", "8"} {
		if got := v.Validate(model.Slots{Count: slot(n)}); !got.Valid {
			t.Fatalf("count %s should be valid, got %+v", n, got)
		}
	}
	for _, n := range []string{"0", "9"} {
		got := v.Validate(model.Slots{Count: slot(n)})
		if got.Valid || got.ViolatedSlot != model.SlotCount {
			t.Fatalf("count %s should fail naming count, got %+v", n, got)
		}
	}
}

func TestValidate_TodayFailsTomorrowPasses(t *testing.T) {
	v := newTestValidator(t)
	today := v.Now().Format("2006-01-02")
	tomorrow := v.Now().AddDate(0, 0, 1).Format("2006-01-02")

	got := v.Validate(model.Slots{Date: slot(today)})
	if got.Valid || got.ViolatedSlot != model.SlotDate {
		t.Fatalf("same-day date should fail, got %+v", got)
	}
	if got = v.Validate(model.Slots{Date: slot(tomorrow)}); !got.Valid {
		t.Fatalf("next-day date should pass, got %+v", got)
	}
}

func TestValidate_AcceptsTextualDateForms(t *testing.T) {
	v := newTestValidator(t)
	for _, d := range []string{"2026-10-15", "10/15/2026", "October 15, 2026", "Oct 15 2026"} {
		if got := v.Validate(model.Slots{Date: slot(d)}); !got.Valid {
			t.Fatalf("date %q should parse and pass, got %+v", d, got)
		}
	}
}

func TestValidate_CountReadsInterpretedValue(t *testing.T) {
	v := newTestValidator(t)
	got := v.Validate(model.Slots{Count: &model.SlotValue{Raw: "a table for four", Interpreted: "4"}})
	if !got.Valid {
		t.Fatalf("interpreted count should win over raw, got %+v", got)
	}
}
