package request

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"required,max=254,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Bio       string `json:"bio"`
	// Role is checked against the enum by the service, after the permission check
	Role string `json:"role"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,max=150,username"`
	Email     *string `json:"email,omitempty" validate:"omitempty,max=254,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty"`
	Role      *string `json:"role,omitempty"`
}

// UpdateMeRequest has no role field, so a role in the payload is dropped on decode.
type UpdateMeRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,max=150,username"`
	Email     *string `json:"email,omitempty" validate:"omitempty,max=254,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty"`
}
