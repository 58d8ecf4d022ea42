package handlers

import (
	"time"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
)

type recordResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Weight    float64         `json:"weight"`
	Height    float64         `json:"height"`
	Age       int             `json:"age"`
	BMI       float64         `json:"bmi"`
	Category  entity.Category `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toRecordResponse(r entity.BMIRecord) recordResponse {
	return recordResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Weight:    r.Weight,
		Height:    r.Height,
		Age:       r.Age,
		BMI:       r.BMI,
		Category:  r.Category,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toRecordResponses(recs []entity.BMIRecord) []recordResponse {
	out := make([]recordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	return out
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt.UTC()}
}
