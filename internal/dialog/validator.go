package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ab7289/dining-concierge/internal/model"
)

// supportedCities is the fixed whitelist of locations the concierge serves.
var supportedCities = map[string]bool{
	"new york": true, "los angeles": true, "chicago": true, "houston": true,
	"philadelphia": true, "phoenix": true, "san antonio": true,
	"san diego": true, "dallas": true, "san jose": true, "austin": true,
	"jacksonville": true, "san francisco": true, "indianapolis": true,
	"columbus": true, "fort worth": true, "charlotte": true, "detroit": true,
	"el paso": true, "seattle": true, "denver": true, "washington dc": true,
	"memphis": true, "boston": true, "nashville": true, "baltimore": true,
	"portland": true,
}

// supportedCuisines is the fixed whitelist of cuisines in the search index.
var supportedCuisines = map[string]bool{
	"vegetarian": true, "seafood": true, "indian": true, "chinese": true,
	"american": true, "italian": true, "japanese": true, "mexican": true,
	"mediterranean": true, "vegan": true, "chicken": true, "steak": true,
	"noodles": true, "fast food": true, "deli": true, "convenience": true,
	"sandwiches": true, "desserts": true, "burgers": true, "salad": true,
	"coffee": true, "thai": true, "brazilian": true,
}

// dateLayouts are the textual date forms the validator accepts.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// Party size bounds, inclusive.
const (
	minPartySize = 1
	maxPartySize = 8
)

// Validator checks collected slot values against the business rules of the
// dining flow. "Today" is evaluated in Location, supplied by configuration so
// concurrent conversations never race on process-wide time zone state.
type Validator struct {
	Location *time.Location
	Now      func() time.Time
}

// NewValidator builds a Validator for the given IANA time zone name.
func NewValidator(timeZone string) (*Validator, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("load dialog time zone %q: %w", timeZone, err)
	}
	return &Validator{Location: loc, Now: time.Now}, nil
}

// Validate checks every present slot in fixed priority order (location,
// cuisine, date, count) and short-circuits at the first violation. Absent
// slots are skipped: they simply have not been elicited yet.
func (v *Validator) Validate(slots model.Slots) model.ValidationVerdict {
	if loc := slots.Location.Value(); loc != "" && !isValidCity(loc) {
		return invalid(model.SlotLocation, fmt.Sprintf(
			"We currently do not support %s as a valid Location. Can you try a different city?", loc))
	}

	if c := slots.Cuisine.Value(); c != "" && !isValidCuisine(c) {
		return invalid(model.SlotCuisine, fmt.Sprintf(
			"We currently do not support %s as a valid Cuisine. Can you try a different one?", c))
	}

	if d := slots.Date.Value(); d != "" {
		day, ok := v.parseDate(d)
		if !ok {
			return invalid(model.SlotDate,
				"I did not understand your reservation date. When would you like to make your reservation?")
		}
		if !day.After(v.today()) {
			return invalid(model.SlotDate,
				"Reservations must be scheduled at least one day in advance. Can you try a different date?")
		}
	}

	if c := slots.Count.Value(); c != "" {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil || n < minPartySize || n > maxPartySize {
			return invalid(model.SlotCount,
				"You can make a reservation for from one to eight guests. How many guests will be attending?")
		}
	}

	return model.ValidationVerdict{Valid: true}
}

func invalid(slot, message string) model.ValidationVerdict {
	return model.ValidationVerdict{Valid: false, ViolatedSlot: slot, Message: message}
}

func isValidCity(city string) bool {
	return supportedCities[strings.ToLower(strings.TrimSpace(city))]
}

func isValidCuisine(cuisine string) bool {
	return supportedCuisines[strings.ToLower(strings.TrimSpace(cuisine))]
}

// parseDate tries each accepted layout and returns midnight of the parsed day
// in the validator's time zone.
func (v *Validator) parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, v.Location); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, v.Location), true
		}
	}
	return time.Time{}, false
}

// today returns midnight of the current day in the validator's time zone.
func (v *Validator) today() time.Time {
	now := v.Now().In(v.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.Location)
}
