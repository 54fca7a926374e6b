package user

// Credentials is the upstream login body. The upstream API expects
// PascalCase keys.
type Credentials struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

// Registration is forwarded upstream. Role keeps the casing the form sent.
type Registration struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
	Role     string `json:"Role"`
}
