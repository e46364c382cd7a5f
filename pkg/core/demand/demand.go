// Package demand turns a date range and a staffing requirement into the
// per-slot demand lines sent to the solver.
package demand

import (
	"fmt"
	"sort"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// Requirements maps location -> proficiency grade -> headcount
type Requirements map[model.Location]map[int]int

// Line is the demand for a single (date, location, shift) slot
type Line struct {
	Date            string
	Location        model.Location
	Shift           model.Shift
	RequiredByGrade map[int]int
}

// Override replaces a location's requirement on the dates it applies to
type Override struct {
	AppliesTo    func(date string) bool
	Location     model.Location
	Requirements map[int]int
}

// Validate rejects requirements that cannot describe a demand
func (r Requirements) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("requirements must name at least one location")
	}
	for location, byGrade := range r {
		if !location.IsValid() {
			return fmt.Errorf("unknown location %q", location)
		}
		if err := validateGrades(byGrade); err != nil {
			return fmt.Errorf("location %s: %w", location, err)
		}
	}
	return nil
}

func validateGrades(byGrade map[int]int) error {
	for grade, count := range byGrade {
		if !model.ValidGrade(grade) {
			return fmt.Errorf("grade %d outside %d..%d", grade, model.MinGrade, model.MaxGrade)
		}
		if count < 0 {
			return fmt.Errorf("grade %d has negative headcount %d", grade, count)
		}
	}
	return nil
}

// Locations returns the requirement's locations in sorted order
func (r Requirements) Locations() []model.Location {
	locations := make([]model.Location, 0, len(r))
	for location := range r {
		locations = append(locations, location)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	return locations
}

// ValidateOverride checks an override's location and grades
func ValidateOverride(o Override) error {
	if !o.Location.IsValid() {
		return fmt.Errorf("unknown location %q", o.Location)
	}
	return validateGrades(o.Requirements)
}

// BuildLines produces one line per day x requirement location x shift.
// When several overrides match a date and location the last one wins.
func BuildLines(days []string, requirements Requirements, overrides []Override) []Line {
	locations := requirements.Locations()
	lines := make([]Line, 0, len(days)*len(locations)*len(model.Shifts))

	for _, day := range days {
		for _, location := range locations {
			byGrade := requirements[location]
			for _, o := range overrides {
				if o.Location == location && o.AppliesTo != nil && o.AppliesTo(day) {
					byGrade = o.Requirements
				}
			}

			for _, shift := range model.Shifts {
				lines = append(lines, Line{
					Date:            day,
					Location:        location,
					Shift:           shift,
					RequiredByGrade: copyCounts(byGrade),
				})
			}
		}
	}

	return lines
}

func copyCounts(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for grade, count := range src {
		dst[grade] = count
	}
	return dst
}
