package models

// Part is the subset of an inventory row the stock monitor works with.
type Part struct {
	ID            int64  `json:"id" db:"id" bson:"id"`
	PartNumber    string `json:"part_number" db:"part_number" bson:"part_number"`
	Name          string `json:"name" db:"name" bson:"name"`
	CurrentStock  int64  `json:"current_stock" db:"current_stock" bson:"current_stock"`
	MinStockLevel int64  `json:"min_stock_level" db:"min_stock_level" bson:"min_stock_level"`
}
