package model

// ChangeEvent is a row-level change notification pushed to subscribers of
// the realtime broker. Row carries the affected row's new state (for
// deletes, its last state before removal).
type ChangeEvent struct {
	Table string     `json:"table"`
	Event ChangeType `json:"event"`
	Row   interface{} `json:"row"`
}

type ChangeType string

const (
	ChangeTypeInsert ChangeType = "INSERT"
	ChangeTypeUpdate ChangeType = "UPDATE"
	ChangeTypeDelete ChangeType = "DELETE"
)

var AllChangeType = []ChangeType{
	ChangeTypeInsert,
	ChangeTypeUpdate,
	ChangeTypeDelete,
}

func (e ChangeType) IsValid() bool {
	switch e {
	case ChangeTypeInsert, ChangeTypeUpdate, ChangeTypeDelete:
		return true
	}
	return false
}

func (e ChangeType) String() string {
	return string(e)
}

// Table names used both by the storage layer when publishing changes and by
// subscribers when scoping their channels.
const (
	TablePosts         = "posts"
	TableMessages      = "messages"
	TableConversations = "conversations"
	TableConfessions   = "confessions"
	TableHustles       = "hustles"
	TableEvents        = "events"
	TableStories       = "stories"
)
