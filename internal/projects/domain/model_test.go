package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectRequest_Normalize(t *testing.T) {
	req := CreateProjectRequest{UserID: 4, Name: "  Lake house ", Description: " two floors "}
	require.NoError(t, req.Normalize())
	assert.Equal(t, "Lake house", req.Name)
	assert.Equal(t, "two floors", req.Description)

	missingUser := CreateProjectRequest{Name: "x"}
	assert.ErrorIs(t, missingUser.Normalize(), ErrInvalidInput)

	blank := CreateProjectRequest{UserID: 1, Name: "   "}
	assert.ErrorIs(t, blank.Normalize(), ErrInvalidInput)
}

func TestUpdateProjectRequest_Normalize(t *testing.T) {
	blank := "  "
	req := UpdateProjectRequest{Name: &blank}
	assert.ErrorIs(t, req.Normalize(), ErrInvalidInput)

	empty := UpdateProjectRequest{}
	require.NoError(t, empty.Normalize())
	assert.True(t, empty.Empty())
}

func TestProjectRequest_NameLength(t *testing.T) {
	long := strings.Repeat("p", MaxNameLen+1)
	assert.ErrorIs(t, (&CreateProjectRequest{UserID: 1, Name: long}).Normalize(), ErrInvalidInput)
	assert.ErrorIs(t, (&UpdateProjectRequest{Name: &long}).Normalize(), ErrInvalidInput)

	fits := strings.Repeat("p", MaxNameLen)
	require.NoError(t, (&CreateProjectRequest{UserID: 1, Name: fits}).Normalize())
}
