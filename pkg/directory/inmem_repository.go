package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryDirectoryRepository implements DirectoryRepository using in-memory
// storage. All mutations happen under a single lock, so the atomicity
// guarantees of the interface hold trivially.
type InMemoryDirectoryRepository struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]User
	profiles    map[uuid.UUID]SecurityProfile
	areas       map[uuid.UUID]Area
	companies   map[uuid.UUID]Company
	roles       map[uuid.UUID]Role
	memberships map[uuid.UUID]Membership

	// auditRefs reports whether audit entries reference the user; wired by
	// the caller to enforce protect-on-delete without importing the audit
	// package.
	auditRefs func(userID uuid.UUID) bool
}

// NewInMemoryDirectoryRepository creates a new in-memory directory repository
func NewInMemoryDirectoryRepository() *InMemoryDirectoryRepository {
	return &InMemoryDirectoryRepository{
		users:       make(map[uuid.UUID]User),
		profiles:    make(map[uuid.UUID]SecurityProfile),
		areas:       make(map[uuid.UUID]Area),
		companies:   make(map[uuid.UUID]Company),
		roles:       make(map[uuid.UUID]Role),
		memberships: make(map[uuid.UUID]Membership),
	}
}

// SetAuditRefChecker wires the protect-on-delete check for users
func (r *InMemoryDirectoryRepository) SetAuditRefChecker(check func(userID uuid.UUID) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auditRefs = check
}

// CreateUser creates a new user together with its security profile
func (r *InMemoryDirectoryRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == params.Username {
			return User{}, ErrDuplicateUsername
		}
	}

	user := User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        strings.ToLower(params.Email),
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.users[user.ID] = user
	r.profiles[user.ID] = SecurityProfile{UserID: user.ID, MustChangePassword: true}
	return user, nil
}

// GetUser gets a user by ID
func (r *InMemoryDirectoryRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// FindUserByUsername finds a user by username
func (r *InMemoryDirectoryRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// FindUserByEmail finds a user by email (case-insensitive)
func (r *InMemoryDirectoryRepository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

// DeleteUser deletes a user unless audit entries reference them
func (r *InMemoryDirectoryRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	if r.auditRefs != nil && r.auditRefs(id) {
		return ErrUserProtected
	}

	delete(r.users, id)
	delete(r.profiles, id)
	for mid, m := range r.memberships {
		if m.UserID == id {
			delete(r.memberships, mid)
		}
	}
	return nil
}

// SetPassword updates a user's password hash, optionally clearing the
// must-change flag in the same critical section
func (r *InMemoryDirectoryRepository) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string, clearMustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	user.PasswordHash = passwordHash
	r.users[userID] = user

	if clearMustChange {
		profile := r.profiles[userID]
		profile.UserID = userID
		profile.MustChangePassword = false
		r.profiles[userID] = profile
	}
	return nil
}

// GetSecurityProfile gets a user's security profile
func (r *InMemoryDirectoryRepository) GetSecurityProfile(ctx context.Context, userID uuid.UUID) (SecurityProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return SecurityProfile{}, ErrUserNotFound
	}
	return profile, nil
}

// CreateArea creates a new area
func (r *InMemoryDirectoryRepository) CreateArea(ctx context.Context, name, code string) (Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.areas {
		if a.Name == name || a.Code == code {
			return Area{}, ErrDuplicateArea
		}
	}

	area := Area{ID: uuid.New(), Name: name, Code: code}
	r.areas[area.ID] = area
	return area, nil
}

// GetArea gets an area by ID
func (r *InMemoryDirectoryRepository) GetArea(ctx context.Context, id uuid.UUID) (Area, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	area, ok := r.areas[id]
	if !ok {
		return Area{}, ErrAreaNotFound
	}
	return area, nil
}

// CreateCompany creates a new company, active by default
func (r *InMemoryDirectoryRepository) CreateCompany(ctx context.Context, name, code string) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.companies {
		if c.Name == name || c.Code == code {
			return Company{}, ErrDuplicateCompany
		}
	}

	company := Company{ID: uuid.New(), Name: name, Code: code, Active: true}
	r.companies[company.ID] = company
	return company, nil
}

// GetCompany gets a company by ID
func (r *InMemoryDirectoryRepository) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	company, ok := r.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return company, nil
}

// SetCompanyActive toggles a company's active flag
func (r *InMemoryDirectoryRepository) SetCompanyActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	company, ok := r.companies[id]
	if !ok {
		return ErrCompanyNotFound
	}
	company.Active = active
	r.companies[id] = company
	return nil
}

// CreateRole creates a new role
func (r *InMemoryDirectoryRepository) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := Role{
		ID:          uuid.New(),
		Name:        params.Name,
		Permissions: append([]string(nil), params.Permissions...),
	}
	if params.Profile != nil {
		profile := *params.Profile
		role.Profile = &profile
	}
	r.roles[role.ID] = role
	return role, nil
}

// GetRole gets a role by ID
func (r *InMemoryDirectoryRepository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

// CreateMembership assigns a role to a user within a company. The membership
// area is denormalized from the role profile at creation time.
func (r *InMemoryDirectoryRepository) CreateMembership(ctx context.Context, params CreateMembershipParams) (Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[params.UserID]; !ok {
		return Membership{}, ErrUserNotFound
	}
	if _, ok := r.companies[params.CompanyID]; !ok {
		return Membership{}, ErrCompanyNotFound
	}
	role, ok := r.roles[params.RoleID]
	if !ok {
		return Membership{}, ErrRoleNotFound
	}

	for _, m := range r.memberships {
		if m.UserID == params.UserID && m.CompanyID == params.CompanyID {
			return Membership{}, ErrDuplicateMembership
		}
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

	r.memberships[membership.ID] = membership
	return membership, nil
}

// GetMembership gets the membership for a (user, company) pair
func (r *InMemoryDirectoryRepository) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.memberships {
		if m.UserID == userID && m.CompanyID == companyID {
			return copyMembership(m), nil
		}
	}
	return Membership{}, ErrMembershipNotFound
}

// FindMembershipsByUser finds all memberships for a user
func (r *InMemoryDirectoryRepository) FindMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Membership
	for _, m := range r.memberships {
		if m.UserID == userID {
			result = append(result, copyMembership(m))
		}
	}
	return result, nil
}

// copyMembership detaches the permission slice from the stored value, so
// callers never observe later mutations.
func copyMembership(m Membership) Membership {
	m.ExceptionPermissions = append([]string(nil), m.ExceptionPermissions...)
	return m
}

// AddExceptionPermission adds a permission to the membership's exception set.
// Adding an already-present code is a no-op.
func (r *InMemoryDirectoryRepository) AddExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[membershipID]
	if !ok {
		return ErrMembershipNotFound
	}

	for _, existing := range m.ExceptionPermissions {
		if existing == code {
			return nil
		}
	}
	m.ExceptionPermissions = append(m.ExceptionPermissions, code)
	r.memberships[membershipID] = m
	return nil
}

// RemoveExceptionPermission removes a permission from the membership's
// exception set. Removing an absent code is a no-op.
func (r *InMemoryDirectoryRepository) RemoveExceptionPermission(ctx context.Context, membershipID uuid.UUID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[membershipID]
	if !ok {
		return ErrMembershipNotFound
	}

	// Previously returned memberships alias the old backing array, so the
	// kept set is built in a fresh allocation.
	kept := make([]string, 0, len(m.ExceptionPermissions))
	for _, existing := range m.ExceptionPermissions {
		if existing != code {
			kept = append(kept, existing)
		}
	}
	m.ExceptionPermissions = kept
	r.memberships[membershipID] = m
	return nil
}
