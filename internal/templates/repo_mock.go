package templates

import (
	"context"
	"sort"
	"sync"
)

type repoMock struct {
	mutex     sync.Mutex
	templates map[int]Template
	owners    map[int]string
	exercises map[int]string
	nextID    int
}

func NewRepoMock() *repoMock {
	return &repoMock{
		templates: make(map[int]Template),
		owners:    make(map[int]string),
		exercises: make(map[int]string),
		nextID:    1,
	}
}

// SetOwnerName registers a display name used by GetView.
func (r *repoMock) SetOwnerName(userID int, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.owners[userID] = name
}

// SetExerciseName registers a display name used by GetView.
func (r *repoMock) SetExerciseName(exerciseID int, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.exercises[exerciseID] = name
}

func (r *repoMock) Add(_ context.Context, template Template) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	template.ID = r.nextID
	r.nextID++
	for i := range template.Exercises {
		template.Exercises[i].ID = r.nextID
		r.nextID++
		template.Exercises[i].TemplateID = template.ID
	}
	r.templates[template.ID] = template
	return &template, nil
}

func (r *repoMock) Update(_ context.Context, template Template) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	existing, ok := r.templates[template.ID]
	if !ok {
		return ErrTemplateNotFound
	}
	existing.Name = template.Name
	existing.Exercises = nil
	for i := range template.Exercises {
		template.Exercises[i].ID = r.nextID
		r.nextID++
		template.Exercises[i].TemplateID = template.ID
		existing.Exercises = append(existing.Exercises, template.Exercises[i])
	}
	r.templates[template.ID] = existing
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return &template, nil
}

func (r *repoMock) List(_ context.Context) ([]Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	templates := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})
	return templates, nil
}

func (r *repoMock) GetView(_ context.Context, id int) (*TemplateView, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	template, ok := r.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	view := TemplateView{
		ID:            template.ID,
		Name:          template.Name,
		CreatedByID:   template.OwnerID,
		CreatedByName: r.owners[template.OwnerID],
	}
	for _, entry := range template.Exercises {
		view.Exercises = append(view.Exercises, TemplateViewExercise{
			Name: r.exercises[entry.ExerciseID],
			Sets: entry.Sets,
			Reps: entry.Reps,
		})
	}
	return &view, nil
}
