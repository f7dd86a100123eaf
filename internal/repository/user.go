package repository

import (
	"context"
	"errors"

	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/model"
)

// UserRepository reads the user profile fields the core depends on
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a user profile. Profiles are normally written by the
// profile screens; this is used for seeding and tests.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	setClause := `
		first_name = $first_name,
		last_name = $last_name,
		favourite_sport = $favourite_sport,
		skill_level = $skill_level,
		availability = $availability,
		is_available = $is_available,
		rating = $rating,
		created_on = time::now(),
		updated_on = time::now()`

	availability := user.Availability
	if availability == nil {
		availability = []string{}
	}
	vars := map[string]interface{}{
		"first_name":      user.FirstName,
		"last_name":       user.LastName,
		"favourite_sport": user.FavouriteSport,
		"skill_level":     user.SkillLevel,
		"availability":    availability,
		"is_available":    user.IsAvailable,
		"rating":          user.Rating,
	}
	if user.PictureURL != nil {
		setClause += ", picture_url = $picture_url"
		vars["picture_url"] = *user.PictureURL
	}

	result, err := r.db.Query(ctx, "CREATE user SET "+setClause, vars)
	if err != nil {
		return err
	}

	created, err := database.FirstRecord(result)
	if err != nil {
		return err
	}
	data, ok := asRecord(created)
	if !ok {
		return errors.New("unexpected result format")
	}

	*user = *parseUser(data)
	return nil
}

// Get retrieves a user by ID, nil if it does not exist
func (r *UserRepository) Get(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT * FROM type::record($user_id)`
	vars := map[string]interface{}{"user_id": qualify("user", userID)}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, ok := asRecord(result)
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return parseUser(data), nil
}

// GetByIDs fetches many users in one query. Unknown ids are skipped.
func (r *UserRepository) GetByIDs(ctx context.Context, userIDs []string) ([]*model.User, error) {
	if len(userIDs) == 0 {
		return []*model.User{}, nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, qualify("user", id))
	}

	query := `SELECT * FROM user WHERE id IN $ids.map(|$id| type::record($id))`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, err
	}
	return parseUsers(result), nil
}

// ListCandidates returns available users whose favourite sport is sport and
// whose availability contains weekday.
func (r *UserRepository) ListCandidates(ctx context.Context, sport, weekday string) ([]*model.User, error) {
	query := `
		SELECT * FROM user
		WHERE favourite_sport = $sport
		AND is_available = true
		AND availability CONTAINS $weekday
		ORDER BY rating DESC
	`
	vars := map[string]interface{}{
		"sport":   sport,
		"weekday": weekday,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseUsers(result), nil
}

func parseUsers(result []interface{}) []*model.User {
	rows := flattenRecords(result)
	out := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseUser(row))
	}
	return out
}

func parseUser(data map[string]interface{}) *model.User {
	return &model.User{
		ID:             getRecordID(data, "id"),
		FirstName:      getString(data, "first_name"),
		LastName:       getString(data, "last_name"),
		FavouriteSport: getString(data, "favourite_sport"),
		SkillLevel:     getString(data, "skill_level"),
		Availability:   getStringSlice(data, "availability"),
		IsAvailable:    getBool(data, "is_available"),
		Rating:         getFloat(data, "rating"),
		PictureURL:     getStringPtr(data, "picture_url"),
		CreatedOn:      getTimeValue(data, "created_on"),
		UpdatedOn:      getTimeValue(data, "updated_on"),
	}
}
