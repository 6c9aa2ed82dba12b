package companies

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-registry/meridian/internal/entity"
)

// Repository is the PostgreSQL backed company store. Insert uniqueness
// rides on the business_name unique index; update concurrency on a
// compare-and-swap against entity_version, so both are atomic at the
// database.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

const companyColumns = `id, entity_version, owner_id, business_name, invoice_address, city, postal_code, nation, vat_number, created_at, updated_at`

// filterColumns maps wire field names to columns. Filters referencing
// anything else are rejected rather than interpolated.
var filterColumns = map[string]string{
	"id":              "id",
	"entity_version":  "entity_version",
	"owner_id":        "owner_id",
	"business_name":   "business_name",
	"invoice_address": "invoice_address",
	"city":            "city",
	"postal_code":     "postal_code",
	"nation":          "nation",
	"vat_number":      "vat_number",
	"created_at":      "created_at",
}

// Insert persists a new company with version 1.
func (r *Repository) Insert(ctx context.Context, c *Company) (*Company, error) {
	const query = `
		INSERT INTO companies (entity_version, owner_id, business_name, invoice_address, city, postal_code, nation, vat_number, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING ` + companyColumns
	row := r.pool.QueryRow(ctx, query,
		c.OwnerID, c.BusinessName, c.InvoiceAddress, c.City, c.PostalCode, c.Nation, c.VATNumber,
	)
	stored, err := scanCompany(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrDuplicate, c.BusinessName)
		}
		return nil, err
	}
	return stored, nil
}

// UpdateByID swaps the stored row when the version stamp matches.
func (r *Repository) UpdateByID(ctx context.Context, id int64, c *Company, expectedVersion int64) (*Company, error) {
	const query = `
		UPDATE companies
		SET entity_version = entity_version + 1,
		    business_name = $3, invoice_address = $4, city = $5,
		    postal_code = $6, nation = $7, vat_number = $8,
		    updated_at = now()
		WHERE id = $1 AND entity_version = $2
		RETURNING ` + companyColumns
	row := r.pool.QueryRow(ctx, query,
		id, expectedVersion,
		c.BusinessName, c.InvoiceAddress, c.City, c.PostalCode, c.Nation, c.VATNumber,
	)
	stored, err := scanCompany(row)
	if err == nil {
		return stored, nil
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", entity.ErrDuplicate, c.BusinessName)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Distinguish a missing row from a lost version race.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.ErrNotFound
	}
	return nil, fmt.Errorf("%w: submitted %d", entity.ErrStaleVersion, expectedVersion)
}

// DeleteByID removes the row.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// FindByID returns the company or entity.ErrNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	stored, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

// FindOne returns the single company matching the filter.
func (r *Repository) FindOne(ctx context.Context, filter entity.Filter) (*Company, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies`+where+` LIMIT 2`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, entity.ErrNoResult
	case 1:
		return matches[0], nil
	default:
		return nil, entity.ErrNonUniqueResult
	}
}

// FindAll returns one page of companies matching the filter.
func (r *Repository) FindAll(ctx context.Context, filter entity.Filter, pageSize, pageNumber int, order []entity.Order) (entity.Page[*Company], error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return entity.Page[*Company]{}, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return entity.Page[*Company]{}, err
	}

	query := `SELECT ` + companyColumns + ` FROM companies` + where + ` ORDER BY ` + orderClause(order)
	if entity.Paginated(pageSize, pageNumber) {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, pageSize, (pageNumber-1)*pageSize)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return entity.Page[*Company]{}, err
	}
	defer rows.Close()

	var results []*Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return entity.Page[*Company]{}, err
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return entity.Page[*Company]{}, err
	}
	return entity.NewPage(results, pageSize, pageNumber, total), nil
}

// CountAll counts companies matching the filter.
func (r *Repository) CountAll(ctx context.Context, filter entity.Filter) (int64, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildWhere(filter entity.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for _, pred := range filter {
		column, ok := filterColumns[pred.Field]
		if !ok {
			return "", nil, fmt.Errorf("companies: unknown filter field %q", pred.Field)
		}
		var op string
		switch pred.Op {
		case entity.OpEq:
			op = "="
		case entity.OpNe:
			op = "<>"
		case entity.OpGt:
			op = ">"
		case entity.OpLt:
			op = "<"
		default:
			return "", nil, fmt.Errorf("companies: unsupported filter operator %q", pred.Op)
		}
		args = append(args, pred.Value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func orderClause(order []entity.Order) string {
	clauses := make([]string, 0, len(order)+1)
	for _, o := range order {
		column, ok := filterColumns[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		clauses = append(clauses, column+" "+dir)
	}
	// Deterministic listings regardless of caller-supplied order.
	clauses = append(clauses, "id ASC")
	return strings.Join(clauses, ", ")
}

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.EntityVersion, &c.OwnerID,
		&c.BusinessName, &c.InvoiceAddress, &c.City, &c.PostalCode, &c.Nation, &c.VATNumber,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
