package profile

import (
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdate(t *testing.T) {
	cmd := &cobra.Command{Use: "update"}
	cmd.Flags().AddFlagSet(updateCmd.Flags())

	require.NoError(t, cmd.ParseFlags([]string{"--first-name", "Sam", "--bio", ""}))
	update := buildUpdate(cmd)

	require.NotNil(t, update.FirstName)
	assert.Equal(t, "Sam", *update.FirstName)
	require.NotNil(t, update.Bio, "an explicit empty flag clears the field")
	assert.Empty(t, *update.Bio)
	assert.Nil(t, update.LastName)
	assert.Nil(t, update.PhoneNumber)
}

func TestBuildUpdate_NoFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "update"}
	assert.Equal(t, sdk.ProfileUpdate{}, buildUpdate(cmd))
}
