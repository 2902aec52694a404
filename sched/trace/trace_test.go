package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLevel(t *testing.T) {
	assert.True(t, IsValidLevel("none"))
	assert.True(t, IsValidLevel("decisions"))
	assert.True(t, IsValidLevel("candidates"))
	assert.True(t, IsValidLevel(""))
	assert.False(t, IsValidLevel("bogus"))
}

func TestDecisions_Record_Appends(t *testing.T) {
	d := New(Config{Level: LevelDecisions})
	d.Record(DecisionRecord{TaskID: "t1", ChosenWorker: "w0"})
	d.Record(DecisionRecord{TaskID: "t2", ChosenWorker: "w1"})

	assert.Len(t, d.Records, 2)
	assert.Equal(t, "t1", d.Records[0].TaskID)
}
