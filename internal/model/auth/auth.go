package auth

// Credentials is the email/password pair submitted by the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the subset of the identity provider's user record the pages use.
type User struct {
	ID    string `json:"id"`
	Aud   string `json:"aud,omitempty"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
	LastSignInAt     string `json:"last_sign_in_at,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

// Tokens 是密码登录成功后返回的会话令牌
type Tokens struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}
