package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCookies(t *testing.T) {
	path := writeCookieFile(t, `[
		{"name":"wt2","value":"abc","domain":".zhipin.com","path":"/","expires":1893456000,"httpOnly":true,"secure":true,"sameSite":"Lax"},
		{"name":"session","value":"s1","domain":".zhipin.com","path":"/"}
	]`)

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "wt2", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, ".zhipin.com", *cookies[0].Domain)
	assert.Equal(t, float64(1893456000), *cookies[0].Expires)
	assert.True(t, *cookies[0].HttpOnly)
	assert.True(t, *cookies[0].Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[0].SameSite)

	// Optional attributes stay unset when absent from the export.
	assert.Nil(t, cookies[1].Expires)
	assert.Nil(t, cookies[1].HttpOnly)
	assert.Nil(t, cookies[1].Secure)
	assert.Nil(t, cookies[1].SameSite)
}

func TestLoadHTTPCookies(t *testing.T) {
	path := writeCookieFile(t, `[{"name":"wt2","value":"abc","domain":".zhipin.com","path":"/"}]`)

	cookies, err := LoadHTTPCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "wt2", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
}

func TestLoadCookiesErrors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadCookies(writeCookieFile(t, "not json"))
	assert.Error(t, err)
}
