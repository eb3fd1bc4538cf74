package pipeline

import "fmt"

// FileError records a structural or validation failure tied to one file.
type FileError struct {
	Org    string `json:"org"`
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Stats is the running validation-statistics accumulator carried through a
// pipeline run and emitted as the validation report.
type Stats struct {
	TotalFiles     int         `json:"totalFiles"`
	ValidFiles     int         `json:"validFiles"`
	InvalidFiles   int         `json:"invalidFiles"`
	TotalRecords   int         `json:"totalRecords"`
	ValidRecords   int         `json:"validRecords"`
	InvalidRecords int         `json:"invalidRecords"`
	Warnings       []string    `json:"warnings,omitempty"`
	Errors         []FileError `json:"errors,omitempty"`
}

// AddError records a file-scoped error.
func (s *Stats) AddError(org, file, format string, args ...interface{}) {
	s.Errors = append(s.Errors, FileError{
		Org:    org,
		File:   file,
		Reason: fmt.Sprintf(format, args...),
	})
}

// AddWarning records a non-fatal data-quality warning.
func (s *Stats) AddWarning(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// HasIssues reports whether any warnings or errors were accumulated.
func (s *Stats) HasIssues() bool {
	return len(s.Warnings) > 0 || len(s.Errors) > 0
}
