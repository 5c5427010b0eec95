package model

type User struct {
	ID    int    `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
}

func (u User) GetID() int { return u.ID }

func (u User) WithID(id int) User {
	u.ID = id
	return u
}

// SeedUsers returns the records every fresh User Service starts with.
func SeedUsers() []User {
	return []User{
		{ID: 1, Name: "张三", Email: "alice@example.com"},
		{ID: 2, Name: "李四", Email: "bob@example.com"},
		{ID: 3, Name: "王五", Email: "charlie@example.com"},
	}
}
