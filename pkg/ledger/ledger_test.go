package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger_AddKeepsInsertionOrder(t *testing.T) {
	l := New()
	l.Add(Success, "first")
	l.Add(Success, "second")
	l.Add(Success, "first")

	assert.Equal(t, []string{"first", "second", "first"}, l.Messages(Success))
	assert.Equal(t, 3, l.Count(Success))
	assert.Equal(t, 3, l.Len())
}

func TestLedger_CategoriesSorted(t *testing.T) {
	l := New()
	l.Add(Success, "a")
	l.Add(Error, "b")
	l.Add(LanguageMismatch, "c")
	l.Add(ImageExists, "d")

	assert.Equal(t, []string{"Error", "Image exists", "Language mismatch", "Success"}, l.Categories())
}

func TestLedger_Lines(t *testing.T) {
	l := New()
	l.Addf(Success, "Wrote image '%s' to '%s'", "ubcmds/base-r:v2", "q1/info.json")
	l.Add(Error, "boom")

	expected := []string{
		"Error:",
		"  - boom",
		"Success:",
		"  - Wrote image 'ubcmds/base-r:v2' to 'q1/info.json'",
	}
	assert.Equal(t, expected, l.Lines())
}

func TestLedger_Empty(t *testing.T) {
	l := New()
	assert.Empty(t, l.Categories())
	assert.Empty(t, l.Lines())
	assert.Equal(t, 0, l.Count(Success))
	assert.Equal(t, 0, l.Len())
}

func TestLedger_MessagesReturnsCopy(t *testing.T) {
	l := New()
	l.Add(Error, "original")

	msgs := l.Messages(Error)
	msgs[0] = "mutated"

	assert.Equal(t, []string{"original"}, l.Messages(Error))
}
