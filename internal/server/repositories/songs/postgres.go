package songs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpavel/songsync/internal/dbx"
	"github.com/dpavel/songsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Song, error) {
	query :=
		`SELECT id, text, length, date, liked, web_view_path, latitude, longitude
		 FROM songs
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.Text, &s.Length, &s.Date, &s.Liked,
			&s.WebViewPath, &s.Latitude, &s.Longitude); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return songs, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	query :=
		`SELECT id, text, length, date, liked, web_view_path, latitude, longitude
		 FROM songs
		 WHERE id = $1
		 `

	s := &models.Song{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Text, &s.Length,
		&s.Date, &s.Liked, &s.WebViewPath, &s.Latitude, &s.Longitude)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, song *models.Song) error {
	query :=
		`INSERT INTO songs (id, text, length, date, liked, web_view_path, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query, song.ID, song.Text, song.Length,
		song.Date, song.Liked, song.WebViewPath, song.Latitude, song.Longitude)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, song *models.Song) error {
	query :=
		`UPDATE songs
		 SET text = $2, length = $3, date = $4, liked = $5,
		     web_view_path = $6, latitude = $7, longitude = $8
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, song.ID, song.Text, song.Length,
		song.Date, song.Liked, song.WebViewPath, song.Latitude, song.Longitude)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
