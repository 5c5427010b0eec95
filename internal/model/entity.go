package model

// Entity is a record owned by one backend service. The service assigns ids;
// WithID returns a copy carrying the assigned id.
type Entity[T any] interface {
	GetID() int
	WithID(id int) T
}
