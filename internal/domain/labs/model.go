package labs

import "time"

type Lab struct {
	ID        int64
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
}
