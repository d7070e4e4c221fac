package model

import "time"

// RegisterEntry is one row of the contract register export.
type RegisterEntry struct {
	Contract Contract
	SiteName string
}

// ContractRegister is the full register handed to the Excel generator.
type ContractRegister struct {
	GeneratedAt time.Time
	Entries     []RegisterEntry
}
