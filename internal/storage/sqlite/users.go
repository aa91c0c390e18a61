package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"form-bronze-bot/internal/domain"
)

const userColumns = `telegram_id, consent, consent_at, notify_enabled, notify_consent_at,
	name, email, role, phone, city, COALESCE(designer_interest, 0), designer_interest_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                               domain.User
		consent, notify, designer       int
		consentAt, notifyAt, designerAt sql.NullString
		name, email, role, phone, city  sql.NullString
		createdAt, updatedAt            sql.NullString
	)
	err := row.Scan(&u.TelegramID, &consent, &consentAt, &notify, &notifyAt,
		&name, &email, &role, &phone, &city, &designer, &designerAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.Consent = consent == 1
	u.ConsentAt = parseTime(consentAt)
	u.NotifyEnabled = notify == 1
	u.NotifyConsentAt = parseTime(notifyAt)
	u.Name = name.String
	u.Email = email.String
	u.Role = domain.Role(role.String)
	u.Phone = phone.String
	u.City = domain.City(city.String)
	u.DesignerInterest = designer == 1
	u.DesignerInterestAt = parseTime(designerAt)
	u.CreatedAt = parseTimeValue(createdAt)
	u.UpdatedAt = parseTimeValue(updatedAt)
	return &u, nil
}

// EnsureUser создает строку пользователя, если её нет, и обновляет updated_at.
func (r *Repository) EnsureUser(ctx context.Context, telegramID int64) error {
	now := r.stamp()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(telegram_id, created_at, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET updated_at=excluded.updated_at`,
		telegramID, now, now)
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", telegramID, err)
	}
	return nil
}

// GetUser возвращает пользователя или ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE telegram_id=?", telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", telegramID, err)
	}
	return u, nil
}

// SetConsent сохраняет решение о согласии. Отзыв согласия стирает персональные данные профиля.
func (r *Repository) SetConsent(ctx context.Context, telegramID int64, consent, enableNotify bool) error {
	if err := r.EnsureUser(ctx, telegramID); err != nil {
		return err
	}

	now := r.stamp()
	var err error
	if consent {
		notifyAt := sql.NullString{}
		if enableNotify {
			notifyAt = nullString(now)
		}
		_, err = r.db.ExecContext(ctx, `
			UPDATE users
			SET consent=1, consent_at=?, notify_enabled=?, notify_consent_at=?, updated_at=?
			WHERE telegram_id=?`,
			now, boolInt(enableNotify), notifyAt, now, telegramID)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE users
			SET consent=0, consent_at=NULL, notify_enabled=0, notify_consent_at=NULL,
				name=NULL, email=NULL, role=NULL, phone=NULL, city=NULL,
				designer_interest=0, designer_interest_at=NULL,
				updated_at=?
			WHERE telegram_id=?`,
			now, telegramID)
	}
	if err != nil {
		return fmt.Errorf("set consent %d: %w", telegramID, err)
	}
	return nil
}

// UpdateProfile обновляет переданные поля профиля. Пустая строка очищает поле.
func (r *Repository) UpdateProfile(ctx context.Context, telegramID int64, p domain.ProfileUpdate) error {
	if err := r.EnsureUser(ctx, telegramID); err != nil {
		return err
	}
	if p.Empty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(col, val string) {
		sets = append(sets, col+"=?")
		args = append(args, nullString(val))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Role != nil {
		add("role", string(*p.Role))
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.City != nil {
		add("city", string(*p.City))
	}
	sets = append(sets, "updated_at=?")
	args = append(args, r.stamp(), telegramID)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE telegram_id=?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update profile %d: %w", telegramID, err)
	}
	return nil
}

// ToggleNotify переключает уведомления и возвращает новое значение.
func (r *Repository) ToggleNotify(ctx context.Context, telegramID int64) (bool, error) {
	if err := r.EnsureUser(ctx, telegramID); err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle notify: %w", err)
	}
	defer tx.Rollback()

	var current int
	if err := tx.QueryRowContext(ctx, "SELECT notify_enabled FROM users WHERE telegram_id=?", telegramID).Scan(&current); err != nil {
		return false, fmt.Errorf("read notify %d: %w", telegramID, err)
	}

	enabled := current == 0
	now := r.stamp()
	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET notify_enabled=?, notify_consent_at=COALESCE(notify_consent_at, ?), updated_at=?
		WHERE telegram_id=?`,
		boolInt(enabled), now, now, telegramID); err != nil {
		return false, fmt.Errorf("toggle notify %d: %w", telegramID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle notify: %w", err)
	}
	return enabled, nil
}

// DeleteUser удаляет пользователя.
func (r *Repository) DeleteUser(ctx context.Context, telegramID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE telegram_id=?", telegramID); err != nil {
		return fmt.Errorf("delete user %d: %w", telegramID, err)
	}
	return nil
}

// SetDesignerInterest отмечает интерес к сотрудничеству.
func (r *Repository) SetDesignerInterest(ctx context.Context, telegramID int64, interested bool) error {
	if err := r.EnsureUser(ctx, telegramID); err != nil {
		return err
	}
	now := r.stamp()
	at := sql.NullString{}
	if interested {
		at = nullString(now)
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE users SET designer_interest=?, designer_interest_at=?, updated_at=?
		WHERE telegram_id=?`,
		boolInt(interested), at, now, telegramID); err != nil {
		return fmt.Errorf("set designer interest %d: %w", telegramID, err)
	}
	return nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, telegram_id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ListBroadcastRecipients возвращает id пользователей, согласившихся на рассылку,
// с фильтром по роли для аудитории конкретной роли.
func (r *Repository) ListBroadcastRecipients(ctx context.Context, audience domain.Audience) ([]int64, error) {
	query := "SELECT telegram_id FROM users WHERE consent=1 AND notify_enabled=1"
	var args []any
	if role, ok := audience.Role(); ok {
		query += " AND role=?"
		args = append(args, string(role))
	}
	query += " ORDER BY telegram_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats возвращает сводку для администратора.
func (r *Repository) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&s.Users, "SELECT COUNT(*) FROM users"},
		{&s.Registered, `SELECT COUNT(*) FROM users WHERE consent=1
			AND COALESCE(name,'')<>'' AND COALESCE(email,'')<>'' AND COALESCE(role,'')<>''`},
		{&s.NotifySubscribed, "SELECT COUNT(*) FROM users WHERE consent=1 AND notify_enabled=1"},
		{&s.DesignerInterest, "SELECT COUNT(*) FROM users WHERE designer_interest=1"},
		{&s.VisitRequestsNew, "SELECT COUNT(*) FROM visit_requests WHERE status='new'"},
		{&s.Collections, "SELECT COUNT(*) FROM collections WHERE is_active=1"},
		{&s.Sculptures, "SELECT COUNT(*) FROM sculptures"},
	}
	for _, q := range queries {
		n, err := r.count(ctx, q.query)
		if err != nil {
			return domain.Stats{}, fmt.Errorf("stats: %w", err)
		}
		*q.dst = n
	}
	return s, nil
}
