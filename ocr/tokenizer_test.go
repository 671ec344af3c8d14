package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCounter(t *testing.T) {
	counter := HeuristicCounter()

	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("hi"))
	assert.Equal(t, 1, counter.Count("abcd"))
	assert.Equal(t, 2, counter.Count("abcde"))
	assert.Equal(t, 3, counter.Count("hello world!"))
}

func TestTokenCounterFunc(t *testing.T) {
	counter := TokenCounterFunc(func(text string) int { return len(text) })
	assert.Equal(t, 5, counter.Count("abcde"))
}
