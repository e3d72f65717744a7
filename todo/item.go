package todo

const (
	// FieldID is the name of the item key attribute.
	FieldID = "id"

	// FieldTitle is the name of the title attribute.
	FieldTitle = "title"

	// FieldDone is the name of the done attribute.
	FieldDone = "done"
)

// Item is the single entity managed by the service.
type Item struct {
	ID    string `json:"id"    dynamodbav:"id"`
	Title string `json:"title" dynamodbav:"title"`
	Done  bool   `json:"done"  dynamodbav:"done"`
}

// ItemUpdate is the body of a partial update. A nil field is not part of the
// update.
type ItemUpdate struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// Field is a single attribute assignment of a partial update.
type Field struct {
	Name  string
	Value any
}

// Fields returns the assignments present in the update, title first. The
// order is stable and is the enumeration order used by the store update
// builders.
func (u ItemUpdate) Fields() []Field {
	fields := make([]Field, 0, 2)

	if u.Title != nil {
		fields = append(fields, Field{Name: FieldTitle, Value: *u.Title})
	}

	if u.Done != nil {
		fields = append(fields, Field{Name: FieldDone, Value: *u.Done})
	}

	return fields
}
