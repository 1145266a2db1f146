package domain

import "fmt"

// FileType is a domain value identifying which submitted file a staging row or
// rule belongs to.
// Invariant: the value must be one of the broker file letters.
//
// Usage: construct via ParseFileType at trust boundaries (catalog manifests,
// CLI flags) to enforce the allowlist; direct casting bypasses validation.
type FileType string

// Broker file types. A, B, C are the appropriations files of a DABS
// submission; D1 is procurement awards; D2 is financial assistance (FABS).
const (
	FileTypeAppropriations FileType = "A"
	FileTypeProgramObject  FileType = "B"
	FileTypeAwardFinancial FileType = "C"
	FileTypeProcurement    FileType = "D1"
	FileTypeFABS           FileType = "D2"
)

// validFileTypes is the single source of truth for valid file types.
var validFileTypes = map[FileType]bool{
	FileTypeAppropriations: true,
	FileTypeProgramObject:  true,
	FileTypeAwardFinancial: true,
	FileTypeProcurement:    true,
	FileTypeFABS:           true,
}

// ParseFileType constructs a FileType from external input.
func ParseFileType(s string) (FileType, error) {
	ft := FileType(s)
	if !ft.IsValid() {
		return "", fmt.Errorf("unknown file type: %q", s)
	}
	return ft, nil
}

// IsValid checks if the file type is one of the supported enum values.
func (ft FileType) IsValid() bool {
	return validFileTypes[ft]
}

// StagingTable returns the staging table holding rows for this file type.
func (ft FileType) StagingTable() string {
	switch ft {
	case FileTypeAppropriations:
		return "appropriation"
	case FileTypeProgramObject:
		return "object_class_program_activity"
	case FileTypeAwardFinancial:
		return "award_financial"
	case FileTypeProcurement:
		return "award_procurement"
	case FileTypeFABS:
		return "detached_award_financial_assistance"
	default:
		return ""
	}
}

// String returns the string representation of the file type.
func (ft FileType) String() string {
	return string(ft)
}
