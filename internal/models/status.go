// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// LoadStatus is the request phase a client-side store is in.
type LoadStatus string

const (
	StatusIdle    LoadStatus = "idle"
	StatusLoading LoadStatus = "loading"
	StatusError   LoadStatus = "error"
)
