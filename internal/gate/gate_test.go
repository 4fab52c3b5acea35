package gate

import (
	"testing"

	"github.com/ariel-frischer/changeset/internal/semver"
	"github.com/stretchr/testify/assert"
)

func TestCanPublish(t *testing.T) {
	tests := map[string]struct {
		current     string
		marker      string
		wantAllowed bool
		wantReason  string
	}{
		"no marker": {
			current:     "0.1.0",
			wantAllowed: true,
		},
		"newer than marker": {
			current:     "1.1.0",
			marker:      "1.0.2",
			wantAllowed: true,
		},
		"equal to marker": {
			current:    "1.0.2",
			marker:     "1.0.2",
			wantReason: ReasonAlreadyReleased + ": release-1.0.2 is already tagged",
		},
		"older than marker": {
			current:    "1.0.0",
			marker:     "1.0.2",
			wantReason: "version release-1.0.0 is older than the latest release release-1.0.2",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var marker *semver.Version
			if tt.marker != "" {
				m := semver.MustParse(tt.marker)
				marker = &m
			}

			got := CanPublish(semver.MustParse(tt.current), marker, "release-")
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			if tt.wantReason == "" {
				assert.Empty(t, got.Reason)
			} else {
				assert.Contains(t, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanPublishTag(t *testing.T) {
	tests := map[string]struct {
		tag         string
		prefix      string
		wantAllowed bool
	}{
		"latest tag equals current": {tag: "v1.2.3", prefix: "v", wantAllowed: false},
		"latest tag is older":       {tag: "v1.2.2", prefix: "v", wantAllowed: true},
		"no tag":                    {tag: "", prefix: "v", wantAllowed: true},
		"custom prefix":             {tag: "release-1.2.3", prefix: "release-", wantAllowed: false},
		"unparseable tag":           {tag: "nightly", prefix: "v", wantAllowed: true},
		"doubled prefix":            {tag: "vv1.2.3", prefix: "v", wantAllowed: true},
		"prefix mismatch":           {tag: "v1.2.3", prefix: "release-", wantAllowed: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := CanPublishTag(semver.MustParse("1.2.3"), tt.tag, tt.prefix)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
		})
	}
}

func TestCanPublishTagNamesTheConfiguredPrefix(t *testing.T) {
	got := CanPublishTag(semver.MustParse("2.0.0"), "rel/2.0.0", "rel/")
	assert.False(t, got.Allowed)
	assert.Equal(t, ReasonAlreadyReleased+": rel/2.0.0 is already tagged", got.Reason)
}
