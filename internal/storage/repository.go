package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

const timeFormat = time.RFC3339

// Repository is the SQLite-backed store for categories, transactions,
// budgets, goals, and insights.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- categories ---

const categoryColumns = `id, name, description, icon, color, keywords, parent_id, is_default, is_active, created_at`

// ActiveCategories returns every active category with its keyword set.
func (r *Repository) ActiveCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query active categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryByID returns the category with the given id, or nil if none.
func (r *Repository) CategoryByID(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategoryRow(row)
}

// CategoryByName returns the active category with the given name, or nil.
func (r *Repository) CategoryByName(ctx context.Context, name string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? AND is_active = 1`, name)
	return scanCategoryRow(row)
}

// EnsureCategory creates the category unless an active one with the same
// name already exists. Existing categories are never overwritten.
func (r *Repository) EnsureCategory(ctx context.Context, c core.Category) error {
	existing, err := r.CategoryByName(ctx, c.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	keywords, err := json.Marshal(emptyIfNil(c.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, icon, color, keywords, parent_id, is_default, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.Icon, c.Color, string(keywords),
		nullableID(c.ParentID), c.IsDefault, c.IsActive, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "name", c.Name, "keywords", len(c.Keywords))
	return nil
}

// AppendCategoryKeywords merges new keywords into the category's keyword
// set, deduplicated. The keyword set only ever grows.
func (r *Repository) AppendCategoryKeywords(ctx context.Context, id int64, keywords []string) error {
	category, err := r.CategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("category %d not found", id)
	}

	seen := make(map[string]struct{}, len(category.Keywords))
	merged := category.Keywords
	for _, kw := range category.Keywords {
		seen[kw] = struct{}{}
	}
	for _, kw := range keywords {
		if _, dup := seen[kw]; !dup {
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}

	encoded, err := json.Marshal(emptyIfNil(merged))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE categories SET keywords = ? WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("update category keywords: %w", err)
	}
	return nil
}

type categoryScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s categoryScanner) (core.Category, error) {
	var (
		c         core.Category
		keywords  string
		parentID  sql.NullInt64
		createdAt string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color,
		&keywords, &parentID, &c.IsDefault, &c.IsActive, &createdAt); err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &c.Keywords); err != nil {
		return core.Category{}, fmt.Errorf("decode keywords: %w", err)
	}
	c.ParentID = parentID.Int64
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func scanCategoryRow(row *sql.Row) (*core.Category, error) {
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --- transactions ---

const transactionColumns = `id, amount, description, merchant_name, transaction_date, type,
	payment_method, category_id, confidence, source, receipt_image_path, notes, tags,
	is_verified, created_at, updated_at`

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CategoryID int64
	Type       core.TransactionType
	Search     string
	Page       int
	Limit      int
}

// CreateTransaction inserts a transaction and returns its id.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return 0, fmt.Errorf("marshal tags: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount, description, merchant_name, transaction_date, type,
			payment_method, category_id, confidence, source, receipt_image_path, notes, tags,
			is_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.StringFixed(2), t.Description, t.MerchantName,
		t.TransactionDate.UTC().Format(timeFormat), string(t.Type), string(t.PaymentMethod),
		nullableID(t.CategoryID), nullableFloat(t.Confidence), string(t.Source),
		t.ReceiptImagePath, t.Notes, string(tags), t.IsVerified, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", t.Description,
		"amount", t.Amount.StringFixed(2),
		"category_id", t.CategoryID,
		"source", t.Source)
	return id, nil
}

// GetTransaction returns the transaction with the given id, or nil if it
// does not exist or was deleted.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND deleted_at IS NULL`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction replaces the mutable fields of an existing transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, description = ?, merchant_name = ?,
			transaction_date = ?, type = ?, payment_method = ?, category_id = ?,
			confidence = ?, notes = ?, tags = ?, is_verified = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		t.Amount.StringFixed(2), t.Description, t.MerchantName,
		t.TransactionDate.UTC().Format(timeFormat), string(t.Type), string(t.PaymentMethod),
		nullableID(t.CategoryID), nullableFloat(t.Confidence), t.Notes, string(tags),
		t.IsVerified, time.Now().UTC().Format(timeFormat), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d not found", t.ID)
	}
	return nil
}

// SoftDeleteTransaction marks a transaction deleted without removing the row.
func (r *Repository) SoftDeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// ListTransactions returns one page of matching transactions plus the
// total match count.
func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, int, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	if !f.StartDate.IsZero() {
		where = append(where, "transaction_date >= ?")
		args = append(args, f.StartDate.UTC().Format(timeFormat))
	}
	if !f.EndDate.IsZero() {
		where = append(where, "transaction_date <= ?")
		args = append(args, f.EndDate.UTC().Format(timeFormat))
	}
	if f.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR merchant_name LIKE ? OR notes LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+clause+
			` ORDER BY transaction_date DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}
	return transactions, total, rows.Err()
}

// TransactionsSince returns non-deleted transactions dated at or after the
// cutoff, newest first. Used by the insights analyzer.
func (r *Repository) TransactionsSince(ctx context.Context, since time.Time, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE deleted_at IS NULL AND transaction_date >= ?
		 ORDER BY transaction_date DESC LIMIT ?`,
		since.UTC().Format(timeFormat), limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions since: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func scanTransaction(s categoryScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		amount     string
		date       string
		txType     string
		payment    string
		categoryID sql.NullInt64
		confidence sql.NullFloat64
		source     string
		tags       string
		createdAt  string
		updatedAt  string
	)
	if err := s.Scan(&t.ID, &amount, &t.Description, &t.MerchantName, &date, &txType,
		&payment, &categoryID, &confidence, &source, &t.ReceiptImagePath, &t.Notes, &tags,
		&t.IsVerified, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode amount %q: %w", amount, err)
	}
	t.Amount = parsed
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
	}
	t.TransactionDate = parseTime(date)
	t.Type = core.TransactionType(txType)
	t.PaymentMethod = core.PaymentMethod(payment)
	t.CategoryID = categoryID.Int64
	t.Confidence = confidence.Float64
	t.Source = core.TransactionSource(source)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

// --- budgets ---

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (name, amount, spent, period, start_date, end_date, category_id, alert_at, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Amount.StringFixed(2), b.Spent.StringFixed(2), b.Period,
		b.StartDate.UTC().Format(timeFormat), nullableTime(b.EndDate),
		nullableID(b.CategoryID), b.AlertAt, b.IsActive, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, spent, period, start_date, end_date, category_id, alert_at, is_active, created_at
		 FROM budgets WHERE is_active = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			amount     string
			spent      string
			startDate  string
			endDate    sql.NullString
			categoryID sql.NullInt64
			createdAt  string
		)
		if err := rows.Scan(&b.ID, &b.Name, &amount, &spent, &b.Period, &startDate,
			&endDate, &categoryID, &b.AlertAt, &b.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode budget amount: %w", err)
		}
		if b.Spent, err = decimal.NewFromString(spent); err != nil {
			return nil, fmt.Errorf("decode budget spent: %w", err)
		}
		b.StartDate = parseTime(startDate)
		if endDate.Valid {
			b.EndDate = parseTime(endDate.String)
		}
		b.CategoryID = categoryID.Int64
		b.CreatedAt = parseTime(createdAt)
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE budgets SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget %d not found", id)
	}
	return nil
}

// --- goals ---

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (name, description, type, target_amount, current_amount, target_date, priority, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Description, g.Type, g.TargetAmount.StringFixed(2),
		g.CurrentAmount.StringFixed(2), nullableTime(g.TargetDate),
		g.Priority, g.Status, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("insert goal: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, type, target_amount, current_amount, target_date, priority, status, created_at
		 FROM goals WHERE status != 'cancelled' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var (
			g             core.Goal
			targetAmount  string
			currentAmount string
			targetDate    sql.NullString
			createdAt     string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Type, &targetAmount,
			&currentAmount, &targetDate, &g.Priority, &g.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.TargetAmount, err = decimal.NewFromString(targetAmount); err != nil {
			return nil, fmt.Errorf("decode goal target: %w", err)
		}
		if g.CurrentAmount, err = decimal.NewFromString(currentAmount); err != nil {
			return nil, fmt.Errorf("decode goal current: %w", err)
		}
		if targetDate.Valid {
			g.TargetDate = parseTime(targetDate.String)
		}
		g.CreatedAt = parseTime(createdAt)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE goals SET status = 'cancelled' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %d not found", id)
	}
	return nil
}

// --- insights ---

// ReplaceActiveInsights swaps the stored active insight set for a freshly
// computed one in a single transaction.
func (r *Repository) ReplaceActiveInsights(ctx context.Context, insights []core.Insight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insights replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE insights SET status = 'expired' WHERE status = 'active'`); err != nil {
		return fmt.Errorf("expire insights: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	for _, in := range insights {
		data, err := json.Marshal(in.Data)
		if err != nil {
			return fmt.Errorf("marshal insight data: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO insights (type, title, description, data, confidence, priority, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, 'active', ?)`,
			in.Type, in.Title, in.Description, string(data), in.Confidence, in.Priority, now); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insights replace: %w", err)
	}
	slog.InfoContext(ctx, "Active insights replaced", "count", len(insights))
	return nil
}

// ActiveInsights returns stored active insights, urgent first, newest first.
func (r *Repository) ActiveInsights(ctx context.Context, limit int) ([]core.Insight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, title, description, data, confidence, priority, status, created_at
		 FROM insights WHERE status = 'active'
		 ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []core.Insight
	for rows.Next() {
		var (
			in        core.Insight
			data      string
			createdAt string
		)
		if err := rows.Scan(&in.ID, &in.Type, &in.Title, &in.Description, &data,
			&in.Confidence, &in.Priority, &in.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &in.Data); err != nil {
			return nil, fmt.Errorf("decode insight data: %w", err)
		}
		in.CreatedAt = parseTime(createdAt)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// --- helpers ---

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
