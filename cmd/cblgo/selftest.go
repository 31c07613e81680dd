package main

// selftestReport lists the ownership checks that ran and their outcome.
type selftestReport struct {
	Checks []selftestCheck `json:"checks"`
}

type selftestCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

func (r *selftestReport) record(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, selftestCheck{Name: name, Passed: passed, Detail: detail})
}

func (r *selftestReport) failed() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}
