package models

type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt int64
	UpdatedAt int64
	Email     string `gorm:"type:varchar(150);index:uniq_email,unique;not null"`
	Password  string `gorm:"type:varchar(128);not null"` // bcrypt hash
}

// PlacesPath is the collection holding the user's places
func (u *User) PlacesPath() string {
	return "users/" + u.ID + "/places"
}

// OwnsPath is true for the user's own namespace, users/{id} and below
func (u *User) OwnsPath(path string) bool {
	prefix := "users/" + u.ID
	return u.ID != "" && (path == prefix || len(path) > len(prefix) && path[:len(prefix)+1] == prefix+"/")
}
