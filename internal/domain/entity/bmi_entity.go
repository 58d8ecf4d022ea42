package entity

import (
	"math"
	"time"
)

// Category is the weight-status bucket a BMI value falls into.
type Category string

const (
	CategoryUnderweight  Category = "Underweight"
	CategoryNormalWeight Category = "Normal weight"
	CategoryOverweight   Category = "Overweight"
	CategoryObesity      Category = "Obesity"
)

// Categories lists every category in ascending BMI order.
var Categories = []Category{CategoryUnderweight, CategoryNormalWeight, CategoryOverweight, CategoryObesity}

// BMIRecord is one measurement submission owned by a user.
// BMI and Category are always produced by Derive; nothing else writes them.
type BMIRecord struct {
	ID        string
	UserID    string
	Weight    float64 // kg
	Height    float64 // cm
	Age       int
	BMI       float64
	Category  Category
	CreatedAt time.Time
}

// NewBMIRecord builds an unsaved record with its derived fields filled in.
func NewBMIRecord(userID string, weight, height float64, age int) *BMIRecord {
	bmi, cat := Derive(weight, height)
	return &BMIRecord{
		UserID:   userID,
		Weight:   weight,
		Height:   height,
		Age:      age,
		BMI:      bmi,
		Category: cat,
	}
}

// Derive computes the BMI (one decimal) and its category from weight in kg
// and height in cm. Inputs must already be validated as positive.
func Derive(weight, height float64) (float64, Category) {
	m := height / 100
	bmi := Round1(weight / (m * m))
	return bmi, Classify(bmi)
}

// Classify maps a BMI value to its category using half-open thresholds.
func Classify(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormalWeight
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObesity
	}
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
