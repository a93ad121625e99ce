package workouts

import (
	"time"
)

// Set is one logged (exercise, weight, reps) triple inside a workout.
type Set struct {
	ID         int     `json:"id"`
	WorkoutID  int     `json:"workoutId"`
	ExerciseID int     `json:"exerciseId"`
	Weight     float64 `json:"weight"`
	Reps       int     `json:"reps"`
}

// Workout is one user's logged session on one date. It exclusively owns
// its sets: deleting a workout deletes them too.
type Workout struct {
	ID     int       `json:"id"`
	UserID int       `json:"userId"`
	Date   time.Time `json:"date"`
	Sets   []Set     `json:"sets"`
}
