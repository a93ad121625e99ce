package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"
)

type mockSet struct {
	username    string
	muscleGroup string
	date        time.Time
	weight      float64
	reps        int
}

type repoMock struct {
	mutex sync.Mutex
	sets  []mockSet
}

func NewRepoMock() *repoMock {
	return &repoMock{}
}

func (r *repoMock) AddSet(username, muscleGroup string, date time.Time, weight float64, reps int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sets = append(r.sets, mockSet{
		username:    username,
		muscleGroup: muscleGroup,
		date:        date,
		weight:      weight,
		reps:        reps,
	})
}

func (r *repoMock) Compute(_ context.Context, muscleGroup string, since *time.Time) ([]Row, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	totals := map[string]float64{}
	for _, s := range r.sets {
		if muscleGroup != "" && s.muscleGroup != muscleGroup {
			continue
		}
		if since != nil && s.date.Before(*since) {
			continue
		}
		totals[s.username] += s.weight * float64(s.reps)
	}

	var rows []Row
	for username, total := range totals {
		rows = append(rows, Row{Username: username, TotalVolume: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TotalVolume > rows[j].TotalVolume
	})
	return rows, nil
}
