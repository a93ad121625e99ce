package strava

import (
	"time"
)

// Account links one user to their Strava athlete. One row per user,
// removed on disconnect.
type Account struct {
	ID           int       `json:"id"`
	UserID       int       `json:"userId"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Activity is one activity record as returned by the Strava API.
type Activity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	StartDate          time.Time `json:"start_date"`
	Distance           float64   `json:"distance"`
	MovingTime         int       `json:"moving_time"`
	AverageSpeed       float64   `json:"average_speed"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
}

// ImportedWorkout is a locally stored Strava activity. The Strava
// activity id is globally unique and dedups repeated imports.
type ImportedWorkout struct {
	ID                 int       `json:"id"`
	UserID             int       `json:"userId"`
	StravaID           int64     `json:"stravaId"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	StartDate          time.Time `json:"startDate"`
	Distance           float64   `json:"distance"`
	MovingTime         int       `json:"movingTime"`
	AverageSpeed       float64   `json:"averageSpeed"`
	TotalElevationGain float64   `json:"totalElevationGain"`
}

func (a Activity) toImportedWorkout(userID int) ImportedWorkout {
	return ImportedWorkout{
		UserID:             userID,
		StravaID:           a.ID,
		Name:               a.Name,
		Type:               a.Type,
		StartDate:          a.StartDate,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		AverageSpeed:       a.AverageSpeed,
		TotalElevationGain: a.TotalElevationGain,
	}
}
