package application

import (
	"slices"
	"strings"
)

// Stage names one of the three stage flags.
type Stage string

const (
	StageApplication Stage = "application"
	StageInterview   Stage = "interview"
	StageVisa        Stage = "visa"
)

func (s Stage) Valid() bool {
	switch s {
	case StageApplication, StageInterview, StageVisa:
		return true
	}

	return false
}

func (s Stage) isSet(a *Application) bool {
	switch s {
	case StageApplication:
		return a.ApplicationStage
	case StageInterview:
		return a.Interview
	case StageVisa:
		return a.VisaProcess
	}

	return false
}

// Filter narrows a list of applications. Nil fields are inactive; active fields
// are ANDed.
type Filter struct {
	UniversityName  *string
	StudentName     *string
	TravelInsurance *bool
	Stage           *Stage
}

func (f Filter) IsEmpty() bool {
	return f.UniversityName == nil && f.StudentName == nil && f.TravelInsurance == nil && f.Stage == nil
}

func (f Filter) Match(a *Application) bool {
	if f.UniversityName != nil && a.UniversityName != *f.UniversityName {
		return false
	}

	if f.StudentName != nil && a.StudentName != *f.StudentName {
		return false
	}

	if f.TravelInsurance != nil && a.TravelInsurance != *f.TravelInsurance {
		return false
	}

	if f.Stage != nil && !f.Stage.isSet(a) {
		return false
	}

	return true
}

// FilterApplications returns the applications matching every active predicate.
// An empty filter returns apps itself.
func FilterApplications(apps []*Application, f Filter) []*Application {
	if f.IsEmpty() {
		return apps
	}

	out := make([]*Application, 0, len(apps))

	for _, a := range apps {
		if f.Match(a) {
			out = append(out, a)
		}
	}

	return out
}

// UniversityNames lists the distinct university names in apps, for selectors.
func UniversityNames(apps []*Application) []string {
	return distinct(apps, func(a *Application) string { return a.UniversityName })
}

// StudentNames lists the distinct student names in apps, for selectors.
func StudentNames(apps []*Application) []string {
	return distinct(apps, func(a *Application) string { return a.StudentName })
}

func distinct(apps []*Application, project func(*Application) string) []string {
	seen := make(map[string]struct{}, len(apps))

	for _, a := range apps {
		v := strings.TrimSpace(project(a))
		if v == "" {
			continue
		}

		seen[v] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}

	slices.Sort(out)

	return out
}
