package entity

// Models lists every table owned by this service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Media{},
		&EntityMedia{},
	}
}
