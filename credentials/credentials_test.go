package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Setenv("DELGROUPS_TEST_PASSWORD", "s3cret")
	got, err := Env("DELGROUPS_TEST_PASSWORD").Password()
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)

	_, err = Env("DELGROUPS_TEST_PASSWORD_UNSET").Password()
	require.ErrorContains(t, err, "DELGROUPS_TEST_PASSWORD_UNSET")

	t.Setenv("DELGROUPS_TEST_PASSWORD_EMPTY", "")
	_, err = Env("DELGROUPS_TEST_PASSWORD_EMPTY").Password()
	require.Error(t, err)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pw")
	require.NoError(t, os.WriteFile(path, []byte("  s3cret\n"), 0o600))

	got, err := File(path).Password()
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)

	require.NoError(t, os.WriteFile(path, []byte(" \n"), 0o600))
	_, err = File(path).Password()
	require.ErrorContains(t, err, "empty")

	_, err = File(filepath.Join(t.TempDir(), "absent")).Password()
	require.Error(t, err)
}

func TestStatic(t *testing.T) {
	got, err := Static("s3cret").Password()
	require.NoError(t, err)
	require.Equal(t, "s3cret", got)
}
