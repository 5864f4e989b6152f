package forum

import "time"

// commentRow is the flat query result for a discussion's comments,
// ordered by created_at ascending.
type commentRow struct {
	ID              uint
	Content         string
	ParentCommentID *uint
	CreatedAt       time.Time
	UserID          uint
	AuthorName      string
	AuthorAvatar    string
}

// CommentNode is a root comment carrying its direct replies. The schema
// supports a single parent level, so the tree depth is fixed at 1.
type CommentNode struct {
	ID              uint           `json:"id"`
	Content         string         `json:"content"`
	ParentCommentID *uint          `json:"parentCommentId"`
	CreatedAt       time.Time      `json:"createdAt"`
	AuthorName      string         `json:"authorName"`
	AuthorAvatar    string         `json:"authorAvatar,omitempty"`
	Replies         []*CommentNode `json:"replies"`
}

// buildCommentTree indexes the flat rows by id, then attaches each reply to
// its root ancestor in a second pass. Legacy rows whose parent is itself a
// reply are flattened onto the root comment; rows with a dangling parent are
// dropped rather than surfaced at the wrong level.
func buildCommentTree(rows []commentRow) []*CommentNode {
	byID := make(map[uint]*CommentNode, len(rows))
	roots := make([]*CommentNode, 0, len(rows))

	for _, r := range rows {
		n := &CommentNode{
			ID:              r.ID,
			Content:         r.Content,
			ParentCommentID: r.ParentCommentID,
			CreatedAt:       r.CreatedAt,
			AuthorName:      r.AuthorName,
			AuthorAvatar:    r.AuthorAvatar,
			Replies:         []*CommentNode{},
		}
		byID[r.ID] = n
		if r.ParentCommentID == nil {
			roots = append(roots, n)
		}
	}

	for _, r := range rows {
		if r.ParentCommentID == nil {
			continue
		}
		parent := rootAncestor(byID, *r.ParentCommentID)
		if parent == nil {
			continue
		}
		parent.Replies = append(parent.Replies, byID[r.ID])
	}

	return roots
}

// rootAncestor walks parent links up to the root comment.
func rootAncestor(byID map[uint]*CommentNode, id uint) *CommentNode {
	n, ok := byID[id]
	if !ok {
		return nil
	}
	for n.ParentCommentID != nil {
		p, ok := byID[*n.ParentCommentID]
		if !ok {
			break
		}
		n = p
	}
	return n
}
