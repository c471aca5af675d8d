package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"schedule.csv":            "schedule.csv",
		"../../etc/passwd":        "passwd",
		"..\\..\\win\\boot.ini":   "boot.ini",
		"spring term 2025.xlsx":   "spring_term_2025.xlsx",
		"weird*chars?<name>.csv":  "weirdcharsname.csv",
		"...":                     "upload",
		"":                        "upload",
		"normal-file_name.1.xlsx": "normal-file_name.1.xlsx",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, SanitizeFilename(input), "input %q", input)
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("import-1", "20250301_schedule.csv")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	id, path, _, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "import-1", id)
	assert.Equal(t, "20250301_schedule.csv", path)
}

func TestSignedURLTamperedSignature(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("import-1", "file.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other-secret", time.Minute)
	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.ttl = -time.Minute
	token, _, err := signer.Generate("import-1", "file.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	name, err := store.Save("a/b.csv", []byte("Room,Date\n"))
	require.NoError(t, err)
	assert.Equal(t, "a/b.csv", name)

	f, err := store.Open("a/b.csv")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, store.Delete("a/b.csv"))
	require.NoError(t, store.Delete("a/b.csv"))
}
