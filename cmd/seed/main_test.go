package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInputFromRow_EncodesMetadataAsJSON(t *testing.T) {
	row := []string{
		"musa", "Running Shoes", "Chaussures", "desc en", "desc fr",
		"Nike", "shoes", "25000", "0", "5", "red,blue", "New",
	}

	input, err := publishInputFromRow(row)
	require.NoError(t, err)

	assert.Equal(t, `"Nike"`, input.Brand)
	assert.Equal(t, `"shoes"`, input.Category)
}

func TestPublishInputFromRow_EmptyMetadataStaysEmpty(t *testing.T) {
	row := []string{
		"musa", "Running Shoes", "", "", "",
		"  ", "", "25000", "0", "5", "", "New",
	}

	input, err := publishInputFromRow(row)
	require.NoError(t, err)

	assert.Empty(t, input.Brand)
	assert.Empty(t, input.Category)
}
