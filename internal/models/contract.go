package models

import "time"

// Contract represents a rental agreement for a product.
type Contract struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Number     int       `json:"number" gorm:"not null"`
	Retirada   string    `json:"retirada" gorm:"type:varchar(255);not null"`  // pickup
	Devolucao  string    `json:"devolucao" gorm:"type:varchar(255);not null"` // return
	Observacao *string   `json:"observacao" gorm:"type:text"`
	Tipo       string    `json:"tipo" gorm:"type:varchar(50)"`
	Status     string    `json:"status" gorm:"type:varchar(50)"`
	ProductID  *string   `json:"product_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
