package model

// Profile is an identity record from the directory service: the mapping
// between a human identifier (username/email) and an on-chain address.
type Profile struct {
	Address     string `json:"address"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
