package user

import "github.com/tracklife/trajd/conceptual"

// User owns activities. HasLabels marks users who annotated their trips
// with transportation modes at collection time.
type User struct {
	ID        conceptual.UserID `json:"id"`
	HasLabels bool              `json:"has_labels"`
}
