package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicNames(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		topic     string
		wantFull  string
		wantShort string
	}{
		{"short id", "proj", "mail", "projects/proj/topics/mail", "mail"},
		{"full name", "proj", "projects/other/topics/mail", "projects/other/topics/mail", "mail"},
		{"default", "proj", "", "projects/proj/topics/gmail-updates", "gmail-updates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full, short := TopicNames(tt.projectID, tt.topic)
			require.Equal(t, tt.wantFull, full)
			require.Equal(t, tt.wantShort, short)
		})
	}
}
