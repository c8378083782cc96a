package users

// Repo stores users. Lookups of an unknown user return errors.ErrUserNotFound.
type Repo interface {
	Upsert(user *User) error
	Delete(id string) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(offset, limit int) ([]*User, error)
}
