package internal

import (
	"os"
	"path/filepath"
	"testing"

	"datarag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_HeaderNamesFields(t *testing.T) {
	path := writeSnapshot(t, "lfs.csv", "month,rate\n2024-01,3.4\n2024-02,3.5\n")

	rows, err := NewCSVLoader().Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].Ordinal)
	assert.Equal(t, []types.Field{
		{Name: "month", Value: "2024-01"},
		{Name: "rate", Value: "3.4"},
	}, rows[0].Fields)
	assert.Equal(t, 1, rows[1].Ordinal)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewCSVLoader().Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestLoad_HeaderOnly(t *testing.T) {
	path := writeSnapshot(t, "empty.csv", "month,rate\n")
	_, err := NewCSVLoader().Load(path)
	require.Error(t, err)
}

func TestSourceID(t *testing.T) {
	assert.Equal(t, "lfs_month_duration", SourceID("/data/snapshots/lfs_month_duration.csv"))
}
