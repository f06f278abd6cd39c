package store

import (
	"context"
	"database/sql"
	"errors"

	"learn-market/internal/model"
)

var ErrCourseNotFound = errors.New("course not found")

// CoursesByIDs resolves every requested course in one query. Any missing
// id makes the whole lookup fail with ErrCourseNotFound.
func (r *Database) CoursesByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, ErrCourseNotFound
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT course_id, title, discounted_price, referral_bonus_pct, total_enrolled, created_at
		FROM courses
		WHERE course_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]model.Course, len(ids))
	for rows.Next() {
		var c model.Course
		err := rows.Scan(&c.ID, &c.Title, &c.DiscountedPrice, &c.ReferralBonusPct, &c.TotalEnrolled, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		found[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(ids))
	for _, id := range ids {
		c, ok := found[id]
		if !ok {
			return nil, ErrCourseNotFound
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (r *Database) GetCourseByID(ctx context.Context, id int64) (*model.Course, error) {
	var c model.Course
	err := r.DB.QueryRowContext(ctx, `
		SELECT course_id, title, discounted_price, referral_bonus_pct, total_enrolled, created_at
		FROM courses WHERE course_id = $1`, id).
		Scan(&c.ID, &c.Title, &c.DiscountedPrice, &c.ReferralBonusPct, &c.TotalEnrolled, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Database) CreateCourse(ctx context.Context, c *model.Course) (int64, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO courses(title, discounted_price, referral_bonus_pct)
		VALUES ($1, $2, $3) RETURNING course_id, created_at`,
		c.Title, c.DiscountedPrice, c.ReferralBonusPct).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// OwnedCourseIDs lists the ids of every course the account has purchased.
func (r *Database) OwnedCourseIDs(ctx context.Context, accountID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT course_id FROM account_courses WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
