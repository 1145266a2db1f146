package domain

import "fmt"

// PublishStatus tracks where a submission sits in its publication lifecycle.
// A submission is frozen once it leaves unpublished.
type PublishStatus string

const (
	PublishStatusUnpublished PublishStatus = "unpublished"
	PublishStatusPublishing  PublishStatus = "publishing"
	PublishStatusPublished   PublishStatus = "published"
	PublishStatusUpdating    PublishStatus = "updating"
)

var validPublishStatuses = map[PublishStatus]bool{
	PublishStatusUnpublished: true,
	PublishStatusPublishing:  true,
	PublishStatusPublished:   true,
	PublishStatusUpdating:    true,
}

// ParsePublishStatus constructs a PublishStatus from external input.
func ParsePublishStatus(s string) (PublishStatus, error) {
	ps := PublishStatus(s)
	if !ps.IsValid() {
		return "", fmt.Errorf("unknown publish status: %q", s)
	}
	return ps, nil
}

// IsValid checks if the status is one of the supported enum values.
func (ps PublishStatus) IsValid() bool {
	return validPublishStatuses[ps]
}

// String returns the string representation of the status.
func (ps PublishStatus) String() string {
	return string(ps)
}
