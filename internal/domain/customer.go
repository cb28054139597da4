package domain

import "time"

// Customer is the domain model for the people who submit queries. Customers
// are created lazily on their first ticket and looked up by email afterwards.
type Customer struct {
	ID        string
	Email     string
	Name      *string
	Phone     *string
	Company   *string
	Segment   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
