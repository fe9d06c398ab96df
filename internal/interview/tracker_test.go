package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerMarkAsked(t *testing.T) {
	tr := NewTracker([]string{"What is a goroutine?", "What is a channel?"})
	tr.MarkAsked("Can you explain: what is a channel")
	assert.Equal(t, []string{"What is a goroutine?"}, tr.Available())
	assert.Equal(t, []string{"Can you explain: what is a channel"}, tr.Asked())

	tr.MarkAsked("Something entirely new?")
	assert.Len(t, tr.Available(), 1)
	assert.Len(t, tr.Asked(), 2)
}
