package faculties

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/facultyreview/internal/common"
	"github.com/dmitrijs2005/facultyreview/internal/dbx"
	"github.com/dmitrijs2005/facultyreview/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, name, profile_image, profile_link, department, designation, hec_approved, interest, reviews, version`

// PostgresRepository stores reviews as a JSONB array on the faculty row.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *PostgresRepository) Find(ctx context.Context, filter Filter) ([]models.Faculty, error) {
	var (
		conds []string
		args  []any
	)

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return []models.Faculty{}, nil
		}
		args = append(args, filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, escapeLike(filter.Name))
		conds = append(conds, fmt.Sprintf(`name ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
	}
	if filter.Department != "" {
		args = append(args, escapeLike(filter.Department))
		conds = append(conds, fmt.Sprintf(`department ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
	}

	query := `SELECT ` + selectColumns + ` FROM faculties`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Faculty{}
	for rows.Next() {
		f, err := scanFaculty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Faculty, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + selectColumns + ` FROM faculties WHERE id = $1`

	f, err := scanFaculty(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) UpdateReviews(ctx context.Context, f *models.Faculty) error {
	reviews, err := marshalReviews(f.Reviews)
	if err != nil {
		return err
	}

	query := `
		UPDATE faculties SET reviews = $1, version = version + 1
		WHERE id = $2 AND version = $3
	`
	res, err := r.db.ExecContext(ctx, query, reviews, f.ID, f.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		f.Version++
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Insert(ctx context.Context, f *models.Faculty) error {
	reviews, err := marshalReviews(f.Reviews)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO faculties (name, profile_image, profile_link, department, designation, hec_approved, interest, reviews)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version
	`
	err = r.db.QueryRowContext(ctx, query,
		f.Name, f.ProfileImage, f.ProfileLink, f.Department, f.Designation, f.HECApproved, f.Interest, reviews,
	).Scan(&f.ID, &f.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faculties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFaculty(row scanner) (*models.Faculty, error) {
	var (
		f       models.Faculty
		reviews []byte
	)
	err := row.Scan(&f.ID, &f.Name, &f.ProfileImage, &f.ProfileLink, &f.Department,
		&f.Designation, &f.HECApproved, &f.Interest, &reviews, &f.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	f.Reviews = []models.Review{}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &f.Reviews); err != nil {
			return nil, fmt.Errorf("decode reviews: %w", err)
		}
	}
	return &f, nil
}

func marshalReviews(reviews []models.Review) ([]byte, error) {
	if reviews == nil {
		reviews = []models.Review{}
	}
	b, err := json.Marshal(reviews)
	if err != nil {
		return nil, fmt.Errorf("encode reviews: %w", err)
	}
	return b, nil
}
