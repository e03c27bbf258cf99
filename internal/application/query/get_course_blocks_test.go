package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/USamirjon/miniapp/internal/domain/course"
)

func threeBlocks() []course.Block {
	return []course.Block{
		{ID: "b1", CourseID: "c1", Title: "Блок 1", Ordinal: 0},
		{ID: "b2", CourseID: "c1", Title: "Блок 2", Ordinal: 1},
		{ID: "b3", CourseID: "c1", Title: "Блок 3", Ordinal: 2},
	}
}

func TestCourseBlocks_FirstAlwaysUnlocked(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.blocks = threeBlocks()

	h := NewCourseBlocksHandler(catalog, newFakeProgressReader(), nil, nil)
	blocks, err := h.Handle(context.Background(), GetCourseBlocksQuery{User: 42, CourseID: "c1"})
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.True(t, blocks[0].Unlocked)
	assert.False(t, blocks[1].Unlocked)
	assert.False(t, blocks[2].Unlocked)
}

func TestCourseBlocks_UnlockFollowsPreviousFinish(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.blocks = threeBlocks()

	reader := newFakeProgressReader()
	reader.blockDone["b1"] = true

	h := NewCourseBlocksHandler(catalog, reader, nil, nil)
	blocks, err := h.Handle(context.Background(), GetCourseBlocksQuery{User: 42, CourseID: "c1"})
	require.NoError(t, err)

	assert.True(t, blocks[0].Finished)
	assert.True(t, blocks[1].Unlocked, "block after a finished one is unlocked")
	assert.False(t, blocks[2].Unlocked)
}

func TestCourseBlocks_AnonymousMakesNoStatusCalls(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.blocks = threeBlocks()

	reader := newFakeProgressReader()
	reader.blockDone["b1"] = true

	h := NewCourseBlocksHandler(catalog, reader, nil, nil)
	blocks, err := h.Handle(context.Background(), GetCourseBlocksQuery{User: 0, CourseID: "c1"})
	require.NoError(t, err)

	assert.Equal(t, 0, reader.reads())
	assert.True(t, blocks[0].Unlocked)
	assert.False(t, blocks[1].Unlocked)
}

func TestCourseBlocks_FailedReadDegradesToNotFinished(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.blocks = threeBlocks()

	reader := newFakeProgressReader()
	reader.blockDone["b1"] = true
	reader.failing["b1"] = true

	h := NewCourseBlocksHandler(catalog, reader, nil, nil)
	blocks, err := h.Handle(context.Background(), GetCourseBlocksQuery{User: 42, CourseID: "c1"})
	require.NoError(t, err)

	assert.False(t, blocks[0].Finished)
	assert.False(t, blocks[1].Unlocked, "degraded read keeps the next block locked")
}
