package handlers

import (
	"testing"

	"darkweb/internal/models"
)

func TestPermNames(t *testing.T) {
	if len(permNames) != len(models.AllPermissions) {
		t.Fatalf("Expected %d names, got %d", len(models.AllPermissions), len(permNames))
	}
	if permNames["CLEAN"] != models.PermClean || permNames["ADMIN"] != models.PermAdmin {
		t.Errorf("unexpected names %v", permNames)
	}
}

func TestParentPostIDRejectsInvalidParent(t *testing.T) {
	for _, parent := range []models.CommentParent{
		{Kind: "thread", ID: 3},
		models.PostParent(0),
		models.ReplyParent(0),
	} {
		if _, err := parentPostID(parent); err == nil {
			t.Errorf("Expected error for %+v", parent)
		}
	}

	id, err := parentPostID(models.PostParent(9))
	if err != nil || id != 9 {
		t.Errorf("Expected post 9, got %d %v", id, err)
	}
}
