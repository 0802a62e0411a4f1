package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
}

func TestStatusCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	statusService = &mockStatusService{report: &driving.StatusReport{
		Documents: 4,
		Chunks:    120,
		Vectors:   120,
		Patterns:  map[domain.PatternType]int{domain.PatternRequirement: 17},
		Families:  map[domain.PatternType]int{domain.PatternRequirement: 3},
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Corpus")
	assert.Contains(t, out, "4")
	assert.Contains(t, out, "120")
	assert.Contains(t, out, "requirement:")
	assert.Contains(t, out, "17 patterns")
	assert.Contains(t, out, "3 families")
}

func TestStatusCmd_ListsEveryPatternType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	for _, pt := range domain.PatternTypes {
		assert.Contains(t, buf.String(), string(pt)+":")
	}
}

func TestStatusCmd_ServiceNotConfigured(t *testing.T) {
	oldService := statusService
	statusService = nil
	defer func() {
		statusService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status service not configured")
}
