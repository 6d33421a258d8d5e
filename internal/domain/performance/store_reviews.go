package performance

import "context"

// ListReviews returns reviews for one employee when employeeID is set,
// otherwise all reviews.
func (s *Store) ListReviews(ctx context.Context, employeeID string) ([]Review, error) {
	query := `
    SELECT id, employee_id, month, rating, COALESCE(feedback, ''), COALESCE(reviewer_name, ''), created_at
    FROM performance_reviews
  `
	args := []any{}
	if employeeID != "" {
		query += " WHERE employee_id = $1"
		args = append(args, employeeID)
	}
	query += " ORDER BY month DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.ID, &review.EmployeeID, &review.Month, &review.Rating, &review.Feedback, &review.ReviewerName, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (s *Store) GetReview(ctx context.Context, reviewID string) (*Review, error) {
	var review Review
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, month, rating, COALESCE(feedback, ''), COALESCE(reviewer_name, ''), created_at
    FROM performance_reviews
    WHERE id = $1
  `, reviewID).Scan(&review.ID, &review.EmployeeID, &review.Month, &review.Rating, &review.Feedback, &review.ReviewerName, &review.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *Store) CreateReview(ctx context.Context, review Review) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO performance_reviews (employee_id, month, rating, feedback, reviewer_name)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, review.EmployeeID, review.Month, review.Rating, nullIfEmpty(review.Feedback), nullIfEmpty(review.ReviewerName)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateReview(ctx context.Context, reviewID string, review Review) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE performance_reviews
    SET month = $1,
        rating = $2,
        feedback = $3,
        reviewer_name = $4
    WHERE id = $5
  `, review.Month, review.Rating, nullIfEmpty(review.Feedback), nullIfEmpty(review.ReviewerName), reviewID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, reviewID string) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM performance_reviews WHERE id = $1", reviewID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
