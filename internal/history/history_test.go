package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFollowUpTitle(t *testing.T) {
	t.Run("owner_and_status", func(t *testing.T) {
		title := FollowUpTitle(AssignmentTitle("Jane Smith"), "Resolved", true)
		assert.Equal(t, "Assigned to Jane Smith and Resolved", title)
	})

	t.Run("owner_only", func(t *testing.T) {
		assert.Equal(t, "Assigned to Jane Smith", FollowUpTitle(AssignmentTitle("Jane Smith"), "", false))
	})

	t.Run("unassignment", func(t *testing.T) {
		assert.Equal(t, "Unassigned", FollowUpTitle(AssignmentTitle(""), "", false))
	})

	t.Run("status_only", func(t *testing.T) {
		assert.Equal(t, "Closed", FollowUpTitle("", "Closed", false))
	})

	t.Run("comment_fallback", func(t *testing.T) {
		assert.Equal(t, "Comment", FollowUpTitle("", "", true))
	})

	t.Run("updated_fallback", func(t *testing.T) {
		assert.Equal(t, "Updated", FollowUpTitle("", "", false))
	})
}

func TestChangeSet(t *testing.T) {
	var cs ChangeSet
	assert.Equal(t, 0, cs.Len())

	cs.Add(FieldStatus, "Open", "Resolved")
	cs.Add(FieldOwner, "", "Jane Smith")

	assert.Equal(t, 2, cs.Len())
	changes := cs.Changes()
	assert.Equal(t, "Status", changes[0].Field)
	assert.Equal(t, "Open", *changes[0].OldValue)
	assert.Equal(t, "Resolved", *changes[0].NewValue)
	assert.Nil(t, changes[1].OldValue)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 50))
	long := "This is a much longer string that should be cut down"
	got := Excerpt(long, 20)
	assert.Len(t, got, 20)
	assert.Equal(t, "...", got[17:])
}

func TestChangeMessage(t *testing.T) {
	assert.Equal(t, "Priority set to 2. High", ChangeMessage("Priority", "", "2. High"))
	assert.Equal(t, "Owner cleared (was: Jane)", ChangeMessage("Owner", "Jane", ""))
	assert.Equal(t, "Status changed from Open to Closed", ChangeMessage("Status", "Open", "Closed"))
}
