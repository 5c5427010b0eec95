package model

type Product struct {
	ID          int     `json:"id" bson:"_id"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description" bson:"description"`
	Price       float64 `json:"price" bson:"price"`
}

func (p Product) GetID() int { return p.ID }

func (p Product) WithID(id int) Product {
	p.ID = id
	return p
}

// SeedProducts returns the catalogue every fresh Product Service starts with.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Description: "High-performance laptop", Price: 999.99},
		{ID: 2, Name: "Mouse", Description: "Wireless mouse", Price: 29.99},
		{ID: 3, Name: "Keyboard", Description: "Mechanical keyboard", Price: 89.99},
	}
}
