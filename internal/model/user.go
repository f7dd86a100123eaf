package model

import "time"

// User is the profile data the participation core reads. Profiles are
// edited elsewhere.
type User struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FavouriteSport string    `json:"favourite_sport"`
	SkillLevel     string    `json:"skill_level"`
	Availability   []string  `json:"availability"` // weekday names, "Monday".."Sunday"
	IsAvailable    bool      `json:"is_available"`
	Rating         float64   `json:"rating"`
	PictureURL     *string   `json:"picture_url,omitempty"`
	CreatedOn      time.Time `json:"created_on"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// AvailableOn reports whether weekday is in the user's availability set
func (u *User) AvailableOn(weekday string) bool {
	for _, d := range u.Availability {
		if d == weekday {
			return true
		}
	}
	return false
}

// MatchCriteria is the input of the eligibility matcher
type MatchCriteria struct {
	Sport         string `json:"sport"`
	SkillLevel    string `json:"skill_level"`
	Weekday       string `json:"weekday"`
	ExcludeUserID string `json:"exclude_user_id,omitempty"`
}

// Weekdays lists valid availability values in order
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// IsWeekday checks a weekday name
func IsWeekday(s string) bool {
	for _, d := range Weekdays {
		if d == s {
			return true
		}
	}
	return false
}
