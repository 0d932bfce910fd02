package verdict

import "sort"

// Status is the final pass/fail outcome of a run.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Verdict is the resolved outcome of comparing a candidate trajectory
// against a baseline under a spec: the union of every violation found,
// and the single witness that determines Status and PrimaryCode.
type Verdict struct {
	Status       Status
	Violations   []Violation
	Witness      *Violation
	PrimaryCode  string
	WitnessIndex int
	Metadata     map[string]any
}

// ViolationsAtWitness returns every violation whose EventIndex equals
// v.WitnessIndex, matching the witness set a report exposes alongside
// the chosen primary.
func (v Verdict) ViolationsAtWitness() []Violation {
	if v.Status == StatusPass {
		return nil
	}
	var out []Violation
	for _, viol := range v.Violations {
		if viol.EventIndex == v.WitnessIndex {
			out = append(out, viol)
		}
	}
	return out
}

// Resolve folds the union of refinement and contract violations into
// one Verdict. When more than one violation ties at the same witness
// index, precedence goes to the violation with the lower Class rank
// (REFINEMENT < CONTRACT < TOOLING), then ASCII code order, then the
// order the violations were appended in (emission order).
func Resolve(violations []Violation) Verdict {
	if len(violations) == 0 {
		return Verdict{Status: StatusPass}
	}

	type ranked struct {
		v            Violation
		emissionSeq  int
		classRankVal int
	}
	rs := make([]ranked, len(violations))
	for i, v := range violations {
		rs[i] = ranked{v: v, emissionSeq: i, classRankVal: classRank[v.Class]}
	}

	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.v.EventIndex != b.v.EventIndex {
			return a.v.EventIndex < b.v.EventIndex
		}
		if a.classRankVal != b.classRankVal {
			return a.classRankVal < b.classRankVal
		}
		if a.v.Code != b.v.Code {
			return a.v.Code < b.v.Code
		}
		return a.emissionSeq < b.emissionSeq
	})

	witness := rs[0].v
	ordered := make([]Violation, len(rs))
	for i, r := range rs {
		ordered[i] = r.v
	}

	return Verdict{
		Status:       StatusFail,
		Violations:   ordered,
		Witness:      &witness,
		PrimaryCode:  witness.Code,
		WitnessIndex: witness.EventIndex,
	}
}
