package models

// ServiceCategory comes from the service catalog side of the mechanic API.
type ServiceCategory struct {
	ID   int64  `json:"category_id"`
	Name string `json:"category_name"`
}

// ServiceItem is a priced service under a category. The API calls these
// subcategories.
type ServiceItem struct {
	ID         int64   `json:"subcategory_id"`
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"subcategory_name"`
	Price      float64 `json:"price"`
}
