package logging

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewSetsDebugLevel(t *testing.T) {
	logger := New(true)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
}

func TestNewDefaultsToInfoLevel(t *testing.T) {
	logger := New(false)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func TestNewStructuredUsesJSONFormatter(t *testing.T) {
	logger := NewStructured(false)
	assert.NotNil(t, logger)
}
