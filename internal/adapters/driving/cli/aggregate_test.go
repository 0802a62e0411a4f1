package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
)

func TestAggregateCmd_Use(t *testing.T) {
	assert.Equal(t, "aggregate [type]", aggregateCmd.Use)
}

func TestAggregateCmd_SingleType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := aggregateService.(*mockAggregateService)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"aggregate", "requirement"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, []domain.PatternType{domain.PatternRequirement}, mock.types)
	assert.Contains(t, buf.String(), "1 families created from 2 patterns")
}

func TestAggregateCmd_AllTypesInOrder(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := aggregateService.(*mockAggregateService)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"aggregate"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, domain.PatternTypes, mock.types)
}

func TestAggregateCmd_ReportsFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	aggregateService = &mockAggregateService{err: errors.New("embedding backend down")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"aggregate", "risk"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aggregating risk patterns")
}

func TestAggregateCmd_ServiceNotConfigured(t *testing.T) {
	oldService := aggregateService
	aggregateService = nil
	defer func() {
		aggregateService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"aggregate"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate service not configured")
}
