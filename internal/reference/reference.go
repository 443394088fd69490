// Package reference serves the label/value lists used to fill selection
// fields: students, universities, counselors and processors.
package reference

import "github.com/google/uuid"

type Kind string

const (
	KindStudents     Kind = "students"
	KindUniversities Kind = "universities"
	KindCounselors   Kind = "counselors"
	KindProcessors   Kind = "processors"
)

// Kinds lists every reference kind.
var Kinds = []Kind{KindStudents, KindUniversities, KindCounselors, KindProcessors}

func (k Kind) Valid() bool {
	switch k {
	case KindStudents, KindUniversities, KindCounselors, KindProcessors:
		return true
	}

	return false
}

// Option is one selectable entity.
type Option struct {
	Value uuid.UUID `json:"value"`
	Label string    `json:"label"`
}
