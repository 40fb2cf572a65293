package api

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody(t *testing.T) {
	body, err := readBody("", nil)
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = readBody(`{"subject":"timetable"}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"timetable"}`, string(body))

	body, err = readBody("@-", strings.NewReader(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(body))

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"Career Fair"}`), 0600))
	body, err = readBody("@"+path, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Career Fair"}`, string(body))

	_, err = readBody("title=Career Fair", nil)
	assert.Error(t, err)

	_, err = readBody("@"+filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestWriteBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBody(&buf, []byte(`{"id":1}`)))
	assert.Equal(t, "{\n  \"id\": 1\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeBody(&buf, []byte("plain text")))
	assert.Equal(t, "plain text", buf.String())

	buf.Reset()
	require.NoError(t, writeBody(&buf, nil))
	assert.Empty(t, buf.String())
}
