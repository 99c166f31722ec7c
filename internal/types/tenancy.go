package types

type TenancyStatus string

const (
	TenancyStatusActive     TenancyStatus = "active"
	TenancyStatusExpired    TenancyStatus = "expired"
	TenancyStatusTerminated TenancyStatus = "terminated"
)
