package models

import "encoding/json"

// User is a registry record. UserID is immutable once created.
type User struct {
	UserID int    `json:"user_id" binding:"required,gte=1" example:"1"`
	Name   string `json:"name" binding:"required,min=1,max=100" example:"Ada Lovelace"`
	Email  string `json:"email" binding:"required,email" example:"ada@example.com"`
}

// UserPartView is the response of the "user views part" lookup. Part is the
// Parts service body passed through verbatim.
type UserPartView struct {
	UserID int             `json:"user_id"`
	PartID int             `json:"part_id"`
	Part   json.RawMessage `json:"part" swaggertype:"object"`
}
