package topics

import (
	"testing"

	"github.com/yungbote/persistsvc/internal/types"
)

func TestFromRowsComputesLevels(t *testing.T) {
	parent := func(id int64) *int64 { return &id }
	rows := []*types.Topic{
		{ID: 10, Rank: 0, Title: "Root"},
		{ID: 11, ParentID: parent(10), Rank: 1, Title: "t1"},
		{ID: 12, ParentID: parent(10), Rank: 2, Title: "t2"},
		{ID: 13, ParentID: parent(12), Rank: 3, Title: "t3"},
		{ID: 14, ParentID: parent(13), Rank: 4, Title: "t4"},
	}
	c, err := FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	want := map[int64]int{10: 1, 11: 2, 12: 2, 13: 3, 14: 4}
	for id, level := range want {
		if got := c.AsDict()[id].Level; got != level {
			t.Errorf("topic %d level = %d, want %d", id, got, level)
		}
	}
	if got := ids(c.LeafListByRank()); !equalIDs(got, []int64{11, 14}) {
		t.Errorf("leaves = %v, want [11 14]", got)
	}
}

func TestFromRowsRejectsOrphan(t *testing.T) {
	missing := int64(99)
	rows := []*types.Topic{
		{ID: 10, Rank: 0},
		{ID: 11, ParentID: &missing, Rank: 1},
	}
	if _, err := FromRows(rows); err == nil {
		t.Fatal("FromRows accepted a parent outside the tree")
	}
}
