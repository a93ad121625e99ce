package exercises

type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
}

// DefaultCatalog is seeded at startup if the entries are absent.
var DefaultCatalog = []Exercise{
	{Name: "Bench Press", MuscleGroup: "Chest"},
	{Name: "Squat", MuscleGroup: "Legs"},
	{Name: "Deadlift", MuscleGroup: "Back"},
	{Name: "Overhead Press", MuscleGroup: "Shoulders"},
	{Name: "Bicep Curl", MuscleGroup: "Arms"},
	{Name: "Tricep Extension", MuscleGroup: "Arms"},
	{Name: "Lat Pulldown", MuscleGroup: "Back"},
	{Name: "Leg Press", MuscleGroup: "Legs"},
	{Name: "Dumbbell Fly", MuscleGroup: "Chest"},
	{Name: "Calf Raise", MuscleGroup: "Legs"},
}
