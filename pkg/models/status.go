package models

// OutputStatus is the outcome of writing one output file
type OutputStatus string

const (
	OutputStatusUnset     OutputStatus = ""          // Zero value = unset/unknown
	OutputStatusWritten   OutputStatus = "written"   // New or changed content was written
	OutputStatusUnchanged OutputStatus = "unchanged" // Existing file already had identical content
	OutputStatusCopied    OutputStatus = "copied"    // Passthrough asset copied
	OutputStatusFailed    OutputStatus = "failed"    // Rendering or writing failed
)

// String implements fmt.Stringer for logging
func (s OutputStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid reports whether s is a status the builder records
func (s OutputStatus) IsValid() bool {
	switch s {
	case OutputStatusWritten, OutputStatusUnchanged, OutputStatusCopied, OutputStatusFailed:
		return true
	}
	return false
}

// Succeeded reports whether the output exists on disk after the build
func (s OutputStatus) Succeeded() bool {
	return s == OutputStatusWritten || s == OutputStatusUnchanged || s == OutputStatusCopied
}
