package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectoryRepository implements DirectoryRepository on pgx.
// Atomicity for the multi-row operations comes from transactions; the
// exception-set mutations are single-statement array updates.
type PostgresDirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectoryRepository creates a new PostgreSQL-backed directory repository
func NewPostgresDirectoryRepository(pool *pgxpool.Pool) *PostgresDirectoryRepository {
	return &PostgresDirectoryRepository{pool: pool}
}

// Pool exposes the underlying pool for callers that need to share
// transactions, such as the delegation repository.
func (r *PostgresDirectoryRepository) Pool() *pgxpool.Pool {
	return r.pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// CreateUser creates a new user and its security profile in one transaction
func (r *PostgresDirectoryRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback(ctx)

	user := User{
		ID:        uuid.New(),
		Username:  params.Username,
		Email:     strings.ToLower(params.Email),
		FirstName: params.FirstName,
		LastName:  params.LastName,
		CreatedAt: time.Now().UTC(),
	}
	user.PasswordHash = params.PasswordHash

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicateUsername
		}
		return User{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO security_profiles (user_id, must_change_password)
		VALUES ($1, TRUE)`, user.ID)
	if err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *PostgresDirectoryRepository) scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUser gets a user by ID
func (r *PostgresDirectoryRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE id = $1`, id))
}

// FindUserByUsername finds a user by username
func (r *PostgresDirectoryRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE username = $1`, username))
}

// FindUserByEmail finds a user by email
func (r *PostgresDirectoryRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE email = $1`, strings.ToLower(email)))
}

// DeleteUser deletes a user. The audit-entry foreign keys are declared
// RESTRICT, so deletion fails while audit history references the user.
func (r *PostgresDirectoryRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserProtected
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPassword updates a user's password hash, optionally clearing the
// must-change flag in the same transaction
func (r *PostgresDirectoryRepository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string, clearMustChange bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if clearMustChange {
		_, err = tx.Exec(ctx, `
			UPDATE security_profiles SET must_change_password = FALSE WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetSecurityProfile gets a user's security profile
func (r *PostgresDirectoryRepository) GetSecurityProfile(ctx context.Context, userID uuid.UUID) (SecurityProfile, error) {
	var p SecurityProfile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, must_change_password FROM security_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.MustChangePassword)
	if errors.Is(err, pgx.ErrNoRows) {
		return SecurityProfile{}, ErrUserNotFound
	}
	if err != nil {
		return SecurityProfile{}, err
	}
	return p, nil
}

// CreateArea creates a new area
func (r *PostgresDirectoryRepository) CreateArea(ctx context.Context, name, code string) (Area, error) {
	area := Area{ID: uuid.New(), Name: name, Code: code}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO areas (id, name, code) VALUES ($1, $2, $3)`, area.ID, area.Name, area.Code)
	if err != nil {
		if isUniqueViolation(err) {
			return Area{}, ErrDuplicateArea
		}
		return Area{}, err
	}
	return area, nil
}

// GetArea gets an area by ID
func (r *PostgresDirectoryRepository) GetArea(ctx context.Context, id uuid.UUID) (Area, error) {
	var a Area
	err := r.pool.QueryRow(ctx, `SELECT id, name, code FROM areas WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return Area{}, ErrAreaNotFound
	}
	if err != nil {
		return Area{}, err
	}
	return a, nil
}

// CreateCompany creates a new company, active by default
func (r *PostgresDirectoryRepository) CreateCompany(ctx context.Context, name, code string) (Company, error) {
	company := Company{ID: uuid.New(), Name: name, Code: code, Active: true}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO companies (id, name, code, active) VALUES ($1, $2, $3, TRUE)`,
		company.ID, company.Name, company.Code)
	if err != nil {
		if isUniqueViolation(err) {
			return Company{}, ErrDuplicateCompany
		}
		return Company{}, err
	}
	return company, nil
}

// GetCompany gets a company by ID
func (r *PostgresDirectoryRepository) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `SELECT id, name, code, active FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Code, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

// SetCompanyActive toggles a company's active flag
func (r *PostgresDirectoryRepository) SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// CreateRole creates a new role and its optional profile in one transaction
func (r *PostgresDirectoryRepository) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Role{}, err
	}
	defer tx.Rollback(ctx)

	role := Role{
		ID:          uuid.New(),
		Name:        params.Name,
		Permissions: append([]string(nil), params.Permissions...),
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO roles (id, name, permissions) VALUES ($1, $2, $3)`,
		role.ID, role.Name, role.Permissions)
	if err != nil {
		return Role{}, err
	}

	if params.Profile != nil {
		profile := *params.Profile
		role.Profile = &profile
		_, err = tx.Exec(ctx, `
			INSERT INTO role_profiles (role_id, area_id, managerial) VALUES ($1, $2, $3)`,
			role.ID, profile.AreaID, profile.Managerial)
		if err != nil {
			return Role{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Role{}, err
	}
	return role, nil
}

// GetRole gets a role with its optional profile
func (r *PostgresDirectoryRepository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	var role Role
	var areaID *uuid.UUID
	var managerial *bool
	err := r.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.permissions, p.area_id, p.managerial
		FROM roles r
		LEFT JOIN role_profiles p ON p.role_id = r.id
		WHERE r.id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Permissions, &areaID, &managerial)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, err
	}
	if areaID != nil && managerial != nil {
		role.Profile = &RoleProfile{AreaID: *areaID, Managerial: *managerial}
	}
	return role, nil
}

// CreateMembership assigns a role to a user within a company, denormalizing
// the role profile's area onto the membership row
func (r *PostgresDirectoryRepository) CreateMembership(ctx context.Context, params CreateMembershipParams) (Membership, error) {
	role, err := r.GetRole(ctx, params.RoleID)
	if err != nil {
		return Membership{}, err
	}

	membership := Membership{
		ID:                   uuid.New(),
		UserID:               params.UserID,
		CompanyID:            params.CompanyID,
		RoleID:               params.RoleID,
		ExceptionPermissions: []string{},
	}
	if role.Profile != nil {
		areaID := role.Profile.AreaID
		membership.AreaID = &areaID
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO memberships (id, user_id, company_id, role_id, area_id, exception_permissions)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		membership.ID, membership.UserID, membership.CompanyID, membership.RoleID,
		membership.AreaID, membership.ExceptionPermissions)
	if err != nil {
		if isUniqueViolation(err) {
			return Membership{}, ErrDuplicateMembership
		}
		if isForeignKeyViolation(err) {
			return Membership{}, ErrUserNotFound
		}
		return Membership{}, err
	}
	return membership, nil
}

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.UserID, &m.CompanyID, &m.RoleID, &m.AreaID, &m.ExceptionPermissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, ErrMembershipNotFound
	}
	if err != nil {
		return Membership{}, err
	}
	if m.ExceptionPermissions == nil {
		m.ExceptionPermissions = []string{}
	}
	return m, nil
}

// GetMembership gets the membership for a (user, company) pair
func (r *PostgresDirectoryRepository) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (Membership, error) {
	return scanMembership(r.pool.QueryRow(ctx, `
		SELECT id, user_id, company_id, role_id, area_id, exception_permissions
		FROM memberships WHERE user_id = $1 AND company_id = $2`, userID, companyID))
}

// FindMembershipsByUser finds all memberships for a user
func (r *PostgresDirectoryRepository) FindMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, company_id, role_id, area_id, exception_permissions
		FROM memberships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// AddExceptionPermission appends a code to the membership's exception set in
// a single atomic statement; already-present codes are left untouched
func (r *PostgresDirectoryRepository) AddExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE memberships
		SET exception_permissions = array_append(exception_permissions, $2)
		WHERE id = $1 AND NOT ($2 = ANY(exception_permissions))`, membershipID, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the membership is missing or the code was already present
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM memberships WHERE id = $1)`, membershipID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrMembershipNotFound
		}
	}
	return nil
}

// RemoveExceptionPermission removes a code from the membership's exception
// set in a single atomic statement; absent codes are a no-op
func (r *PostgresDirectoryRepository) RemoveExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE memberships
		SET exception_permissions = array_remove(exception_permissions, $2)
		WHERE id = $1`, membershipID, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}
	return nil
}
