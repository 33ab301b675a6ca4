package domain

type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      Role   `db:"role"`
	CreatedAt int64  `db:"created_at"`
}

// UserSummary is the admin listing projection of a User.
type UserSummary struct {
	Name string `db:"name"`
	Role Role   `db:"role"`
}

// Identity is what a session carries about its owner.
type Identity struct {
	Name  string
	Email string
	Role  Role
}

func (u *User) Identity() Identity {
	return Identity{Name: u.Name, Email: u.Email, Role: u.Role.Normalize()}
}
