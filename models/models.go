package models

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Customer{},
		&Measurement{},
		&Order{},
		&OrderStatusEvent{},
		&OrderProgressNote{},
		&Payment{},
		&AuditLog{},
	}
}
