package auth

import (
	"bytes"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectShell(t *testing.T) {
	assert.Equal(t, "posix", detectShell(""))
	assert.Equal(t, "posix", detectShell("/bin/zsh"))
	assert.Equal(t, "fish", detectShell("/usr/local/bin/fish"))
	assert.Equal(t, "powershell", detectShell("/opt/microsoft/powershell/7/pwsh"))
}

func TestWriteExports(t *testing.T) {
	vars := map[string]string{
		"PORTAL_API_URL":      "http://localhost:8000",
		"PORTAL_ACCESS_TOKEN": "A1",
	}

	tests := []struct {
		format string
		want   string
	}{
		{"bash", "export PORTAL_ACCESS_TOKEN=\"A1\"\nexport PORTAL_API_URL=\"http://localhost:8000\"\n"},
		{"fish", "set -x PORTAL_ACCESS_TOKEN \"A1\"\nset -x PORTAL_API_URL \"http://localhost:8000\"\n"},
		{"pwsh", "$env:PORTAL_ACCESS_TOKEN=\"A1\"\n$env:PORTAL_API_URL=\"http://localhost:8000\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeExports(&buf, tt.format, vars))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	assert.Error(t, writeExports(&bytes.Buffer{}, "tcsh", vars))
}

func TestIdentityRows(t *testing.T) {
	rows := identityRows(&sdk.Identity{
		Email:      "convenor@example.com",
		FirstName:  "Jamie",
		LastName:   "Tran",
		UserType:   sdk.UserTypeUnitConvenor,
		Department: "Computing",
	})

	assert.Contains(t, rows, []string{"Name", "Jamie Tran"})
	assert.Contains(t, rows, []string{"Role", "unit_convenor"})
	assert.Contains(t, rows, []string{"Department", "Computing"})
	assert.NotContains(t, rows, []string{"Position", ""})
}
