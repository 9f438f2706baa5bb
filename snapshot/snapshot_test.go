package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "snapshots_algebra@1.0", Key("algebra@1.0"))
}

func TestIsCurrent(t *testing.T) {
	assert.True(t, Snapshot{ID: CurrentID}.IsCurrent())
	assert.False(t, Snapshot{ID: NewID()}.IsCurrent())
	assert.False(t, Snapshot{}.IsCurrent())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestClone(t *testing.T) {
	orig := Snapshot{
		ID:             NewID(),
		Timestamp:      nowMillis(),
		ConfigIdentity: "algebra@1.0",
		Files:          map[string]string{"/main.py": "print(1)"},
		Metadata:       map[string]string{"configVersion": "1.0"},
	}

	clone := orig.Clone()
	clone.Files["/main.py"] = "changed"
	clone.Metadata["configVersion"] = "2.0"

	assert.Equal(t, "print(1)", orig.Files["/main.py"])
	assert.Equal(t, "1.0", orig.Metadata["configVersion"])
}

func TestCloneNilMetadata(t *testing.T) {
	clone := Snapshot{Files: map[string]string{}}.Clone()
	assert.Nil(t, clone.Metadata)
}
