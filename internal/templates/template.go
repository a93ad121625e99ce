package templates

// TemplateExercise is one ordered entry of a template: an exercise with
// a prescribed number of sets and reps.
type TemplateExercise struct {
	ID         int `json:"id"`
	TemplateID int `json:"templateId"`
	ExerciseID int `json:"exerciseId"`
	Sets       int `json:"sets"`
	Reps       int `json:"reps"`
}

// Template is a named, reusable workout plan owned by the user who
// created it. Its entries never outlive it.
type Template struct {
	ID        int                `json:"id"`
	Name      string             `json:"name"`
	OwnerID   int                `json:"ownerId"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateView is the read-side projection of a template with foreign
// keys resolved into display names. Built at read time, never stored.
type TemplateView struct {
	ID            int                    `json:"id"`
	Name          string                 `json:"name"`
	CreatedByID   int                    `json:"created_by_id"`
	CreatedByName string                 `json:"created_by_name"`
	Exercises     []TemplateViewExercise `json:"exercises"`
}

type TemplateViewExercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}
