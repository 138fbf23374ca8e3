package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmit(t *testing.T) {
	d := New()

	assert.True(t, d.Admit("job-1"))
	assert.True(t, d.Admit("job-2"))
	//repeats are refused, however often they show up
	assert.False(t, d.Admit("job-1"))
	assert.False(t, d.Admit("job-1"))

	assert.Equal(t, 2, d.Count())
	assert.ElementsMatch(t, []string{"job-1", "job-2"}, d.Seen())
}

func TestRunsStartEmpty(t *testing.T) {
	first := New()
	first.Admit("job-1")

	second := New()
	assert.True(t, second.Admit("job-1"))
}
