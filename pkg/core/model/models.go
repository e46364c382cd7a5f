package model

import "sort"

type Role string

const (
	RolePlanner     Role = "Planner"
	RoleContributor Role = "Contributor"
)

func (r Role) IsValid() bool {
	return r == RolePlanner || r == RoleContributor
}

// Location is a deployment site. The set is closed.
type Location string

const (
	LocationA Location = "A"
	LocationB Location = "B"
)

// Locations lists every location in display order
var Locations = []Location{LocationA, LocationB}

func (l Location) IsValid() bool {
	return l == LocationA || l == LocationB
}

// Shift is a slot within a calendar day
type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftNight     Shift = "Night"
)

// Shifts lists every shift in the order they occur during the day
var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

func (s Shift) IsValid() bool {
	return s == ShiftMorning || s == ShiftAfternoon || s == ShiftNight
}

// Order returns the position of the shift within the day, or -1 if unknown
func (s Shift) Order() int {
	for i, shift := range Shifts {
		if shift == s {
			return i
		}
	}
	return -1
}

const (
	MinGrade = 1
	MaxGrade = 9
)

// ValidGrade reports whether a proficiency grade is within range
func ValidGrade(grade int) bool {
	return grade >= MinGrade && grade <= MaxGrade
}

type LeaveCategory string

const (
	LeaveBlock   LeaveCategory = "Block"
	LeaveAdvance LeaveCategory = "Advance"
)

func (c LeaveCategory) IsValid() bool {
	return c == LeaveBlock || c == LeaveAdvance
}

// Label returns the name stored on approved leave rows
func (c LeaveCategory) Label() string {
	switch c {
	case LeaveBlock:
		return "Block Leave"
	case LeaveAdvance:
		return "Advance Leave"
	}
	return string(c)
}

// LeaveState is the lifecycle stage of a leave application
type LeaveState string

const (
	LeavePending  LeaveState = "Pending"
	LeaveApproved LeaveState = "Approved"
	LeaveRejected LeaveState = "Rejected"
)

// CanTransition reports whether a leave application may move between states.
// Pending is the only state with outgoing transitions.
func CanTransition(from, to LeaveState) bool {
	return from == LeavePending && (to == LeaveApproved || to == LeaveRejected)
}

// OnLeaveLabel is the status shown to a worker for a day of approved leave
const OnLeaveLabel = "On Leave"

// ShiftLabel is the status shown to a worker for an assigned shift
func ShiftLabel(shift Shift, location Location) string {
	return string(shift) + " (" + string(location) + ")"
}

// Worker is a member of the workforce as supplied by the worker-management collaborator
type Worker struct {
	ID              string
	Name            string
	Email           string
	Grade           int
	Role            Role
	DeploymentCount int
}

// Roster maps date -> location -> shift -> worker IDs
type Roster map[string]map[Location]map[Shift][]string

// Add appends a worker to a slot, creating intermediate maps as needed
func (r Roster) Add(date string, location Location, shift Shift, workerID string) {
	byLocation, ok := r[date]
	if !ok {
		byLocation = make(map[Location]map[Shift][]string)
		r[date] = byLocation
	}
	byShift, ok := byLocation[location]
	if !ok {
		byShift = make(map[Shift][]string)
		byLocation[location] = byShift
	}
	byShift[shift] = append(byShift[shift], workerID)
}

// Dates returns the roster's dates in calendar order
func (r Roster) Dates() []string {
	dates := make([]string, 0, len(r))
	for date := range r {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Slot identifies a single (date, location, shift) cell
type Slot struct {
	Date     string
	Location Location
	Shift    Shift
}

// Entry is one worker placed in one slot
type Entry struct {
	Slot
	WorkerID string
}

// Entries flattens the roster in date, location, shift order.
// Worker order within a slot is preserved.
func (r Roster) Entries() []Entry {
	var entries []Entry
	for _, date := range r.Dates() {
		byLocation := r[date]
		locations := make([]Location, 0, len(byLocation))
		for location := range byLocation {
			locations = append(locations, location)
		}
		sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })

		for _, location := range locations {
			byShift := byLocation[location]
			shifts := make([]Shift, 0, len(byShift))
			for shift := range byShift {
				shifts = append(shifts, shift)
			}
			sort.Slice(shifts, func(i, j int) bool { return shifts[i].Order() < shifts[j].Order() })

			for _, shift := range shifts {
				for _, workerID := range byShift[shift] {
					entries = append(entries, Entry{
						Slot:     Slot{Date: date, Location: location, Shift: shift},
						WorkerID: workerID,
					})
				}
			}
		}
	}
	return entries
}

// Caller identifies who is asking for a roster view
type Caller struct {
	WorkerID string
	Role     Role
}
