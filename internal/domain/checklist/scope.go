package checklist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Designation names an applicant's role within a project. The empty designation is the
// storage encoding of the project scope and renders as JSON null.
type Designation string

const (
	DesignationNone Designation = ""
	SoloApplicant   Designation = "solo_applicant"
	ApplicantOne    Designation = "applicant_one"
	ApplicantTwo    Designation = "applicant_two"
)

func (d Designation) MarshalJSON() ([]byte, error) {
	if d == DesignationNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

func (d *Designation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*d = DesignationNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Designation(strings.TrimSpace(s))
	return nil
}

// ParseDesignation trims raw. Whether the role exists on a project is checked against the
// fan-out policy with AllowsDesignation.
func ParseDesignation(raw string) Designation {
	return Designation(strings.TrimSpace(raw))
}

// Scope is a sealed sum type: ProjectScope or ParticipantScope.
type Scope interface {
	isScope()
	// Designation is the storage key of the scope.
	Designation() Designation
	String() string
}

type ProjectScope struct{}

func (ProjectScope) isScope()                 {}
func (ProjectScope) Designation() Designation { return DesignationNone }
func (ProjectScope) String() string           { return "project" }

type ParticipantScope struct {
	Who Designation
}

func (ParticipantScope) isScope()                   {}
func (s ParticipantScope) Designation() Designation { return s.Who }
func (s ParticipantScope) String() string           { return "participant:" + string(s.Who) }

// ScopeFromDesignation decodes the storage key back into a Scope.
func ScopeFromDesignation(d Designation) Scope {
	if d == DesignationNone {
		return ProjectScope{}
	}
	return ParticipantScope{Who: d}
}

// FanOutPolicy maps an applicant count to the participant designations that receive
// PARTICIPANT-scope rows.
type FanOutPolicy map[ApplicantCount][]Designation

// DefaultFanOutPolicy caps three_or_more_applicants at two named designations, the only
// non-solo roles currently defined.
func DefaultFanOutPolicy() FanOutPolicy {
	return FanOutPolicy{
		OneApplicant:          {SoloApplicant},
		TwoApplicants:         {ApplicantOne, ApplicantTwo},
		ThreeOrMoreApplicants: {ApplicantOne, ApplicantTwo},
	}
}

// WithThreeOrMore returns a copy of p with the three_or_more_applicants roster replaced.
func (p FanOutPolicy) WithThreeOrMore(designations []Designation) FanOutPolicy {
	out := make(FanOutPolicy, len(p)+1)
	for k, v := range p {
		out[k] = append([]Designation(nil), v...)
	}
	if len(designations) > 0 {
		out[ThreeOrMoreApplicants] = append([]Designation(nil), designations...)
	}
	return out
}

func (p FanOutPolicy) Designations(count ApplicantCount) ([]Designation, error) {
	ds, ok := p[count]
	if !ok || len(ds) == 0 {
		return nil, fmt.Errorf("no participant designations configured for applicant count %q", count)
	}
	return ds, nil
}

// AllowsDesignation reports an error unless who is empty or one of the roles a project with
// count applicants fans out to.
func (p FanOutPolicy) AllowsDesignation(count ApplicantCount, who Designation) error {
	if who == DesignationNone {
		return nil
	}
	ds, err := p.Designations(count)
	if err != nil {
		return err
	}
	for _, d := range ds {
		if d == who {
			return nil
		}
	}
	return fmt.Errorf("designation %q is not a participant of a %s project", who, count)
}

// ScopesFor expands an item into the scopes it must be materialized for on a project.
func (p FanOutPolicy) ScopesFor(item *RequiredItem, project *Project) ([]Scope, error) {
	switch item.Scope {
	case ScopeProject:
		return []Scope{ProjectScope{}}, nil
	case ScopeParticipant:
		ds, err := p.Designations(project.ApplicantCount)
		if err != nil {
			return nil, err
		}
		out := make([]Scope, 0, len(ds))
		for _, d := range ds {
			out = append(out, ParticipantScope{Who: d})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("item %s has unknown scope %q", item.ID, item.Scope)
	}
}

// ScopesForDesignation narrows the fan-out to a single submitting participant. PROJECT items
// always resolve to the project scope; PARTICIPANT items resolve to who, or to the full
// fan-out when who is empty.
func (p FanOutPolicy) ScopesForDesignation(item *RequiredItem, project *Project, who Designation) ([]Scope, error) {
	if item.Scope == ScopeParticipant && who != DesignationNone {
		return []Scope{ParticipantScope{Who: who}}, nil
	}
	return p.ScopesFor(item, project)
}
