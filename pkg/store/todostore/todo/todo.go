package todo

// Item is a single to-do belonging to exactly one user.
type Item struct {
	// UserID is the owner of the item. Set once at creation.
	UserID string `json:"userId"`
	// TodoID uniquely identifies the item within the owner's list. Set once at
	// creation.
	TodoID string `json:"todoId"`
	// CreatedAt is an ISO-8601 timestamp. Never rewritten.
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	DueDate       string `json:"dueDate,omitempty"`
	Done          bool   `json:"done"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
}

// Update carries the mutable fields of an [Item].
type Update struct {
	Name    string
	DueDate string
	Done    bool
}

// Apply returns a copy of the item with the mutable fields replaced.
func (u Update) Apply(item Item) Item {
	item.Name = u.Name
	item.DueDate = u.DueDate
	item.Done = u.Done
	return item
}
