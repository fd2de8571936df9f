package domain

// LimitQuery is the optional ?limit= of list endpoints; zero means the service default
type LimitQuery struct {
	Limit int `json:"limit" validate:"omitempty,min=1"`
}

// BalanceQuery is the ?assets= switch of the balance endpoint
type BalanceQuery struct {
	Assets bool `json:"assets"`
}
