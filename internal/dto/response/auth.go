package response

type SignupResponse struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	AlreadyRegistered bool   `json:"already_registered"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
