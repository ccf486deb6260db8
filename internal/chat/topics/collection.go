// Package topics models the per-chat discussion outline: a tree of
// topics ordered by rank, where rank is a pre-order traversal of the
// tree and level is depth (root = 1). Chat minutes exist for every
// topic, but only leaf topics generate minute events on the wire, so
// the interpreter leans on the adjacency queries here to synthesize
// parent minute boundaries.
package topics

// Topic is the in-memory topic node. Level is computed by the loader
// from parent links; the store does not carry it.
type Topic struct {
	ID          int64
	ParentID    *int64
	Rank        int
	Level       int
	Title       string
	Description string
}

// Collection is an immutable view over one chat's topic tree. All
// iteration is by rank so a monotone scan matches chronological order.
type Collection struct {
	byRank       []*Topic
	byID         map[int64]*Topic
	leavesByRank []*Topic

	rankIndex map[int64]int
	leafIndex map[int64]int
}

// NewCollection builds a collection from topics sorted ascending by
// rank, root first. A topic is a leaf iff no other topic names it as
// parent.
func NewCollection(topicsByRank []*Topic) *Collection {
	c := &Collection{
		byRank:    topicsByRank,
		byID:      make(map[int64]*Topic, len(topicsByRank)),
		rankIndex: make(map[int64]int, len(topicsByRank)),
		leafIndex: make(map[int64]int),
	}
	parentIDs := make(map[int64]bool, len(topicsByRank))
	for i, t := range topicsByRank {
		c.byID[t.ID] = t
		c.rankIndex[t.ID] = i
		if t.ParentID != nil {
			parentIDs[*t.ParentID] = true
		}
	}
	for _, t := range topicsByRank {
		if !parentIDs[t.ID] {
			c.leafIndex[t.ID] = len(c.leavesByRank)
			c.leavesByRank = append(c.leavesByRank, t)
		}
	}
	return c
}

// AsListByRank returns all topics ordered ascending by rank.
func (c *Collection) AsListByRank() []*Topic { return c.byRank }

// AsDict returns the id -> topic lookup map.
func (c *Collection) AsDict() map[int64]*Topic { return c.byID }

// LeafListByRank returns the leaf topics ordered ascending by rank.
func (c *Collection) LeafListByRank() []*Topic { return c.leavesByRank }

// Root returns the first topic in rank order, or nil for an empty
// collection.
func (c *Collection) Root() *Topic {
	if len(c.byRank) == 0 {
		return nil
	}
	return c.byRank[0]
}

func (c *Collection) IsLeaf(t *Topic) bool {
	if t == nil {
		return false
	}
	return c.IsLeafByID(t.ID)
}

func (c *Collection) IsLeafByID(id int64) bool {
	_, ok := c.leafIndex[id]
	return ok
}

// NextTopic returns the topic immediately after t in rank order, or
// nil at the boundary.
func (c *Collection) NextTopic(t *Topic) *Topic {
	if t == nil {
		return nil
	}
	return c.NextTopicByID(t.ID)
}

// PreviousTopic returns the topic immediately before t in rank order,
// or nil at the boundary.
func (c *Collection) PreviousTopic(t *Topic) *Topic {
	if t == nil {
		return nil
	}
	return c.PreviousTopicByID(t.ID)
}

func (c *Collection) NextTopicByID(id int64) *Topic {
	i, ok := c.rankIndex[id]
	if !ok || i+1 >= len(c.byRank) {
		return nil
	}
	return c.byRank[i+1]
}

func (c *Collection) PreviousTopicByID(id int64) *Topic {
	i, ok := c.rankIndex[id]
	if !ok || i == 0 {
		return nil
	}
	return c.byRank[i-1]
}

// NextLeaf returns the leaf immediately after t within the leaf
// subsequence, or nil at the boundary. t must itself be a leaf.
func (c *Collection) NextLeaf(t *Topic) *Topic {
	if t == nil {
		return nil
	}
	return c.NextLeafByID(t.ID)
}

// PreviousLeaf returns the leaf immediately before t within the leaf
// subsequence, or nil at the boundary. t must itself be a leaf.
func (c *Collection) PreviousLeaf(t *Topic) *Topic {
	if t == nil {
		return nil
	}
	return c.PreviousLeafByID(t.ID)
}

func (c *Collection) NextLeafByID(id int64) *Topic {
	i, ok := c.leafIndex[id]
	if !ok || i+1 >= len(c.leavesByRank) {
		return nil
	}
	return c.leavesByRank[i+1]
}

func (c *Collection) PreviousLeafByID(id int64) *Topic {
	i, ok := c.leafIndex[id]
	if !ok || i == 0 {
		return nil
	}
	return c.leavesByRank[i-1]
}
