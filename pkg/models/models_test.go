package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/models"
)

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := models.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Contains(t, id, "-")
	}
}

func TestWorkspaceFindPage(t *testing.T) {
	ws := &models.Workspace{
		ID:   "ws1",
		Name: "Notes",
		Pages: []*models.Page{
			{
				ID:       "folder",
				Title:    "Projects",
				IsFolder: true,
				Children: []*models.Page{
					{ID: "nested", Title: "Deep note"},
				},
			},
			{ID: "top", Title: "Top note"},
		},
	}

	page := ws.FindPage("nested")
	require.NotNil(t, page)
	assert.Equal(t, "Deep note", page.Title)

	assert.NotNil(t, ws.FindPage("top"))
	assert.Nil(t, ws.FindPage("missing"))
}

func TestWorkspaceClone(t *testing.T) {
	now := time.Now().UTC()
	ws := &models.Workspace{
		ID:   "ws1",
		Name: "Notes",
		Pages: []*models.Page{
			{ID: "p1", Title: "One", CreatedAt: now, UpdatedAt: now,
				Children: []*models.Page{{ID: "c1", Title: "Child"}}},
		},
		CurrentPageID: "p1",
	}

	clone := ws.Clone()
	require.Equal(t, ws, clone)

	clone.Pages[0].Children[0].Title = "Changed"
	assert.Equal(t, "Child", ws.Pages[0].Children[0].Title)
}

func TestPageJSONFieldNames(t *testing.T) {
	page := &models.Page{ID: "p1", Title: "Note", ParentID: "folder"}
	raw, err := json.Marshal(page)
	require.NoError(t, err)
	data := string(raw)
	assert.Contains(t, data, `"parentId"`)
	assert.Contains(t, data, `"isFolder"`)
	assert.False(t, strings.Contains(data, `"ParentID"`))
}
