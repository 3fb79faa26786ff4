package domain

// Role values as reported by the Renvo API.
const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
	RoleCustomer = "CUSTOMER"
)

// User is the account record as known to the client. The session store owns
// the canonical copy; everything else reads snapshots.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// UserPatch carries a partial profile update. Nil fields are left untouched.
type UserPatch struct {
	Name      *string
	AvatarURL *string
	Phone     *string
}

// Merge applies the non-nil fields of the patch and returns the merged copy.
func (u User) Merge(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	return u
}
