package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPolicy_Default(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
	assert.Equal(t, uint64(100000), p.SmallDirCap)
}

func TestLoadPolicy_HCL(t *testing.T) {
	path := writePolicy(t, "policy.hcl", `
small_dir_cap = 5000
disk_capacity = 100000000
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, Policy{
		SmallDirCap:  5000,
		DiskCapacity: 100000000,
		RequiredFree: DefaultRequiredFree,
	}, p)
}

func TestLoadPolicy_DefaultsApplyBeforeValidate(t *testing.T) {
	// required_free falls back to its default, which does not fit.
	_, err := LoadPolicy(writePolicy(t, "small.hcl", "disk_capacity = 1000000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds disk_capacity")
}

func TestLoadPolicy_JSON(t *testing.T) {
	path := writePolicy(t, "policy.json", `{"required_free": 1000}`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), p.RequiredFree)
	assert.Equal(t, uint64(DefaultDiskCapacity), p.DiskCapacity)
}

func TestLoadPolicy_ExplicitZeroIsKept(t *testing.T) {
	for _, tc := range []struct {
		name, file, content string
	}{
		{"hcl", "zero.hcl", "small_dir_cap = 0\nrequired_free = 0\n"},
		{"json", "zero.json", `{"small_dir_cap": 0, "required_free": 0}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := LoadPolicy(writePolicy(t, tc.file, tc.content))
			require.NoError(t, err)
			assert.Equal(t, Policy{
				SmallDirCap:  0,
				DiskCapacity: DefaultDiskCapacity,
				RequiredFree: 0,
			}, p)
		})
	}
}

func TestLoadPolicy_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})
	t.Run("unknown attribute", func(t *testing.T) {
		_, err := LoadPolicy(writePolicy(t, "bad.hcl", `bogus = 1`))
		require.Error(t, err)
	})
	t.Run("unsatisfiable", func(t *testing.T) {
		_, err := LoadPolicy(writePolicy(t, "tight.hcl", "disk_capacity = 10\nrequired_free = 20\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds disk_capacity")
	})
}
