package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"form-bronze-bot/internal/domain"
)

// CreateVisitRequest сохраняет заявку. Пустые снимки имени и роли берутся из профиля.
func (r *Repository) CreateVisitRequest(ctx context.Context, v domain.VisitRequest) (int64, error) {
	if v.NameSnapshot == "" || v.RoleSnapshot == "" {
		u, err := r.GetUser(ctx, v.TelegramID)
		switch {
		case err == nil:
			if v.NameSnapshot == "" {
				v.NameSnapshot = u.Name
			}
			if v.RoleSnapshot == "" {
				v.RoleSnapshot = u.Role
			}
		case !errors.Is(err, ErrNotFound):
			return 0, err
		}
	}
	if v.Status == "" {
		v.Status = domain.VisitRequestStatusNew
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO visit_requests(
			telegram_id, name_snapshot, role_snapshot, city,
			contact_method, contact_value, status, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		v.TelegramID, nullString(v.NameSnapshot), nullString(string(v.RoleSnapshot)), nullString(string(v.City)),
		string(v.ContactMethod), nullString(v.ContactValue), v.Status, r.stamp())
	if err != nil {
		return 0, fmt.Errorf("create visit request: %w", err)
	}
	return res.LastInsertId()
}

// ListVisitRequests возвращает страницу заявок, новые первыми, и их общее число.
func (r *Repository) ListVisitRequests(ctx context.Context, limit, offset int) ([]domain.VisitRequest, int, error) {
	total, err := r.count(ctx, "SELECT COUNT(*) FROM visit_requests")
	if err != nil {
		return nil, 0, fmt.Errorf("count visit requests: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, telegram_id, name_snapshot, role_snapshot, city, contact_method, contact_value, status, created_at
		FROM visit_requests ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list visit requests: %w", err)
	}
	defer rows.Close()

	var out []domain.VisitRequest
	for rows.Next() {
		var (
			v                                domain.VisitRequest
			name, role, city, value, created sql.NullString
			method                           string
		)
		if err := rows.Scan(&v.ID, &v.TelegramID, &name, &role, &city, &method, &value, &v.Status, &created); err != nil {
			return nil, 0, fmt.Errorf("scan visit request: %w", err)
		}
		v.NameSnapshot = name.String
		v.RoleSnapshot = domain.Role(role.String)
		v.City = domain.City(city.String)
		v.ContactMethod = domain.ContactMethod(method)
		v.ContactValue = value.String
		v.CreatedAt = parseTimeValue(created)
		out = append(out, v)
	}
	return out, total, rows.Err()
}
