package models

import "time"

// Extraction is the best-effort result of parsing free text.
// Empty fields mean the value was not found.
type Extraction struct {
	Service string
	Date    *time.Time
	Name    string
}

// Complete reports whether the fields required to search for salons are present.
func (e Extraction) Complete() bool {
	return e.Service != "" && e.Date != nil
}

// Patch converts the extracted fields into a state patch, skipping absent ones.
func (e Extraction) Patch() StatePatch {
	var p StatePatch
	if e.Service != "" {
		service := e.Service
		p.Service = &service
	}
	if e.Date != nil {
		date := *e.Date
		p.Date = &date
	}
	if e.Name != "" {
		name := e.Name
		p.Name = &name
	}
	return p
}
