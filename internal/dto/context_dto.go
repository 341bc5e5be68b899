package dto

import "time"

type UpdateUserContextRequest struct {
	Objectives []string `json:"objectives" validate:"max=20,dive,required"`
	FocusAreas []string `json:"focus_areas" validate:"max=20,dive,required"`
}

type UserContextResponse struct {
	Objectives []string   `json:"objectives"`
	FocusAreas []string   `json:"focus_areas"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
