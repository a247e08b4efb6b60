package user

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserOut is the public representation of an account.
type UserOut struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func toUserOut(u *User) UserOut {
	return UserOut{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}
