// Package gate decides whether a release may be published.
package gate

import (
	"fmt"

	"github.com/ariel-frischer/changeset/internal/semver"
)

// ReasonAlreadyReleased is reported when the target version is already tagged.
const ReasonAlreadyReleased = "version already released"

// Decision is the outcome of a publish check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanPublish compares the version about to be released against the latest
// release marker. A nil marker means nothing was released yet. prefix is the
// tag prefix used to name versions in the reason.
func CanPublish(current semver.Version, marker *semver.Version, prefix string) Decision {
	if marker == nil {
		return Decision{Allowed: true}
	}
	switch current.Compare(*marker) {
	case 0:
		return Decision{
			Reason: fmt.Sprintf("%s: %s is already tagged", ReasonAlreadyReleased, current.Tag(prefix)),
		}
	case -1:
		return Decision{
			Reason: fmt.Sprintf("version %s is older than the latest release %s", current.Tag(prefix), marker.Tag(prefix)),
		}
	}
	return Decision{Allowed: true}
}

// CanPublishTag is CanPublish for a raw tag name such as "v1.2.3". Tags that
// do not parse as prefix plus version are treated as no marker.
func CanPublishTag(current semver.Version, tag, prefix string) Decision {
	if tag == "" {
		return CanPublish(current, nil, prefix)
	}
	marker, err := semver.ParseTag(tag, prefix)
	if err != nil {
		return CanPublish(current, nil, prefix)
	}
	return CanPublish(current, &marker, prefix)
}
