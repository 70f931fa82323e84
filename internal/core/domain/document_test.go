package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanContains(t *testing.T) {
	outer := Span{Start: 10, End: 50}

	assert.True(t, outer.Contains(Span{Start: 10, End: 50}))
	assert.True(t, outer.Contains(Span{Start: 20, End: 30}))
	assert.True(t, outer.Contains(Span{Start: 10, End: 11}))

	assert.False(t, outer.Contains(Span{Start: 5, End: 30}))
	assert.False(t, outer.Contains(Span{Start: 20, End: 51}))
	assert.False(t, outer.Contains(Span{Start: 0, End: 100}))
}
